package asm

import (
	"fmt"
	"strconv"
	"strings"

	"go.nightjar.dev/fable/nip"
)

// Compile turns a story script into a Story. The format is line based:
//
//	; comment
//	.msg greeting
//	    "Hello, traveller!\n"
//	    .test chance 32
//	    .jif sunny
//	    "It rains."
//	    .end
//	sunny: "The sun is out."
//	    .end
//
// Directives: .msg  .end  .jump  .jif  .call  .act  .test  .edit
// .case (random|word|synonym|ref [value])  .when  .endcase.
// Quoted text supports \n, \" and \\ escapes. A leading "name:" on any
// line defines a label.
func Compile(name, src string) (*Story, error) {
	c := &compiler{story: NewStory()}
	for i, line := range strings.Split(src, "\n") {
		if err := c.line(line); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", name, i+1, err)
		}
	}
	if c.cur == nil {
		return nil, fmt.Errorf("%s: no .msg in script", name)
	}
	return c.story, nil
}

type compiler struct {
	story *Story
	cur   *Builder
	cases int
}

func (c *compiler) line(line string) error {
	line = strings.TrimSpace(line)
	if line == "" || line[0] == ';' {
		return nil
	}

	// Leading label.
	if i := strings.IndexByte(line, ':'); i > 0 && isLabel(line[:i]) {
		if c.cur == nil {
			return fmt.Errorf("label before any .msg")
		}
		c.cur.Label(line[:i])
		line = strings.TrimSpace(line[i+1:])
		if line == "" {
			return nil
		}
	}

	if line[0] == '"' {
		text, err := unquote(line)
		if err != nil {
			return err
		}
		if c.cur == nil {
			return fmt.Errorf("text before any .msg")
		}
		c.cur.Text(text)
		return nil
	}

	fields := strings.Fields(line)
	directive, args := fields[0], fields[1:]

	if directive == ".msg" {
		if len(args) != 1 {
			return fmt.Errorf(".msg wants a name")
		}
		if c.cases > 0 {
			return fmt.Errorf(".msg inside a case block")
		}
		c.cur = c.story.Message(args[0])
		return nil
	}
	if c.cur == nil {
		return fmt.Errorf("%s before any .msg", directive)
	}

	switch directive {
	case ".end":
		c.cur.End()
	case ".jump", ".jif":
		if len(args) != 1 {
			return fmt.Errorf("%s wants a label", directive)
		}
		if directive == ".jump" {
			c.cur.Jump(args[0])
		} else {
			c.cur.JumpFalse(args[0])
		}
	case ".call":
		if len(args) != 1 {
			return fmt.Errorf(".call wants a message name")
		}
		c.cur.Call(args[0])
	case ".act", ".test", ".edit":
		return c.opcode(directive, args)
	case ".case":
		return c.beginCase(args)
	case ".when":
		if c.cases == 0 {
			return fmt.Errorf(".when outside a case block")
		}
		if len(args) != 1 {
			return fmt.Errorf(".when wants a value")
		}
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 0 || v >= nip.SymCount {
			return fmt.Errorf("bad case value %q", args[0])
		}
		c.cur.When(nip.Sym(v))
	case ".endcase":
		if c.cases == 0 {
			return fmt.Errorf(".endcase without a case block")
		}
		c.cases--
		c.cur.CloseCase()
	default:
		return fmt.Errorf("unknown directive %q", directive)
	}
	return nil
}

func (c *compiler) opcode(directive string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%s wants a mnemonic", directive)
	}
	mnemonic := args[0]
	if len(args) == 1 {
		switch directive {
		case ".act":
			c.cur.Action(mnemonic)
		case ".test":
			c.cur.Test(mnemonic)
		case ".edit":
			c.cur.Edit(mnemonic)
		}
		return nil
	}
	ref, err := strconv.Atoi(args[1])
	if err != nil || ref < 0 || ref > nip.MaxOperand {
		return fmt.Errorf("bad reference %q", args[1])
	}
	switch directive {
	case ".act":
		c.cur.ActionRef(mnemonic, ref)
	case ".test":
		c.cur.TestRef(mnemonic, ref)
	case ".edit":
		c.cur.EditRef(mnemonic, ref)
	}
	return nil
}

func (c *compiler) beginCase(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf(".case wants a kind")
	}
	var kind nip.Sym
	switch args[0] {
	case "random":
		kind = nip.CaseRandom
	case "word":
		kind = nip.CaseByWord
	case "synonym":
		kind = nip.CaseBySynonym
	case "ref":
		kind = nip.CaseByRef
	default:
		return fmt.Errorf("unknown case kind %q", args[0])
	}
	ref := 0
	if kind == nip.CaseByRef {
		if len(args) != 2 {
			return fmt.Errorf(".case ref wants a reference value")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil || v < 0 || v > nip.MaxOperand {
			return fmt.Errorf("bad reference %q", args[1])
		}
		ref = v
	}
	c.cases++
	c.cur.BeginCase(kind, ref)
	return nil
}

func isLabel(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_' {
			continue
		}
		return false
	}
	return len(s) > 0
}

func unquote(line string) (string, error) {
	if len(line) < 2 || line[len(line)-1] != '"' {
		return "", fmt.Errorf("unterminated string %q", line)
	}
	body := line[1 : len(line)-1]
	var out strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] != '\\' {
			out.WriteByte(body[i])
			continue
		}
		i++
		if i == len(body) {
			return "", fmt.Errorf("dangling escape in %q", line)
		}
		switch body[i] {
		case 'n':
			out.WriteByte('\n')
		case '"':
			out.WriteByte('"')
		case '\\':
			out.WriteByte('\\')
		default:
			return "", fmt.Errorf("unknown escape \\%c", body[i])
		}
	}
	return out.String(), nil
}
