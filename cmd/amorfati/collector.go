package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/juicer149/amorfati/pkg/config"
)

// promptCollector asks for declared metadata fields on the terminal.
// Empty input or end of input skips the field; a skipped field is simply
// absent from the record.
type promptCollector struct {
	in  *bufio.Reader
	out io.Writer
}

func newPromptCollector(in io.Reader, out io.Writer) *promptCollector {
	return &promptCollector{in: bufio.NewReader(in), out: out}
}

func (p *promptCollector) Collect(field config.MetaField) (any, bool, error) {
	label := field.Prompt
	if label == "" {
		label = field.Key
	}
	fmt.Fprintf(p.out, "%s: ", label)

	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, false, err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, false, nil
	}
	return parseScalar(line), true, nil
}
