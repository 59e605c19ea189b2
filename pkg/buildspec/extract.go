package buildspec

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

const (
	BeginMarker = "scriptisto-begin"
	EndMarker   = "scriptisto-end"

	// SelfToken identifies a shebang line that points at this tool
	SelfToken = "scriptisto"

	shebangPrefix = "#!"
)

type parserState interface {
	isParserState()
}

type scriptSource struct{}

type configSource struct {
	prefixLen int
}

func (scriptSource) isParserState() {}
func (configSource) isParserState() {}

// Extract splits a script into its body and the lines of the embedded config block.
//
// The column of the begin marker determines how many bytes are stripped from the start of each
// following line, which makes it possible to embed the config in any comment syntax. The marker
// lines stay in the body. Config lines are blanked in the body so that line numbers reported by
// compilers still match the script.
func Extract(script []byte) (body []string, config []string, err error) {
	reader := bufio.NewReader(bytes.NewReader(script))

	var state parserState = scriptSource{}
	lineNum := 0
	for {
		line, err := reader.ReadString('\n')
		if line == "" && err != nil {
			if err != io.EOF {
				return nil, nil, eris.Wrapf(err, "cannot read script line %d", lineNum+1)
			}
			break
		}

		lineNum++
		line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")

		switch s := state.(type) {
		case scriptSource:
			body = append(body, line)
			if pos := strings.Index(line, BeginMarker); pos > -1 {
				state = configSource{prefixLen: pos}
			}
		case configSource:
			stripped := line[min(s.prefixLen, len(line)):]
			if strings.HasPrefix(stripped, EndMarker) {
				body = append(body, line)
				state = scriptSource{}
				continue
			}

			if strings.Contains(stripped, BeginMarker) {
				return nil, nil, &NestingError{Line: lineNum}
			}

			body = append(body, "")
			config = append(config, stripped)
		}
	}

	return body, config, nil
}

// Parse extracts and decodes the embedded configuration of a script and appends the
// reconstructed script body to the returned spec's file list.
func Parse(script []byte) (*BuildSpec, error) {
	body, config, err := Extract(script)
	if err != nil {
		return nil, err
	}

	doc := strings.Join(config, "\n")
	spec, err := Decode(doc)
	if err != nil {
		return nil, err
	}
	spec.Config = doc

	if len(body) > 0 && isSelfShebang(body[0]) {
		body[0] = spec.ReplaceShebangWith
	}

	spec.Files = append(spec.Files, File{
		Path:    spec.ScriptSrc,
		Content: strings.Join(body, "\n"),
	})

	return spec, nil
}

func isSelfShebang(line string) bool {
	return strings.HasPrefix(line, shebangPrefix) && strings.Contains(line, SelfToken)
}
