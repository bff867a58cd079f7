//go:build cgo

package syntax

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/swift"
)

// IsAvailable reports whether tree-sitter parsing was compiled in.
func IsAvailable() bool {
	return true
}

// Parser tokenizes Swift source text. A Parser is not safe for
// concurrent use; create one per goroutine.
type Parser struct {
	parser *sitter.Parser
}

// NewParser creates a parser with the Swift grammar loaded.
func NewParser() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(swift.GetLanguage())
	return &Parser{parser: p}
}

// Tokenize parses src and returns its leaf tokens in source order.
// Whitespace is not represented; offsets locate each token in src.
func (p *Parser) Tokenize(ctx context.Context, src []byte) ([]Token, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	var tokens []Token
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		count := int(n.ChildCount())
		if count == 0 {
			start := n.StartByte()
			end := n.EndByte()
			if end <= start || end > uint32(len(src)) {
				return
			}
			text := string(src[start:end])
			tokens = append(tokens, Token{
				Offset: start,
				Length: end - start,
				Kind:   classifyToken(n.Type(), n.IsNamed(), text),
				Text:   text,
			})
			return
		}
		for i := 0; i < count; i++ {
			walk(n.Child(i))
		}
	}
	walk(tree.RootNode())
	return tokens, nil
}
