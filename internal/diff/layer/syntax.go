package layer

import (
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/idursun/jjreview/internal/diff/model"
)

var syntaxLayerIDs atomic.Int64

// SyntaxDoneMsg carries the result of a highlighting pass.
type SyntaxDoneMsg struct {
	layerID    int64
	generation int64
	spans      map[model.Side]map[model.LineNumber][]Span
	lastLine   map[model.Side]model.LineNumber
}

// SyntaxLayer colours lines once the file has been highlighted in the
// background.
type SyntaxLayer struct {
	Listeners

	id         int64
	generation int64
	enabled    bool
	spans      map[model.Side]map[model.LineNumber][]Span
}

func NewSyntaxLayer() *SyntaxLayer {
	return &SyntaxLayer{
		id:      syntaxLayerIDs.Add(1),
		enabled: true,
		spans:   make(map[model.Side]map[model.LineNumber][]Span),
	}
}

func (s *SyntaxLayer) Name() string { return "syntax" }

func (s *SyntaxLayer) Enabled() bool { return s.enabled }

// SetEnabled turns highlighting on or off. Turning it off drops results and
// any pass still running.
func (s *SyntaxLayer) SetEnabled(enabled bool) {
	s.enabled = enabled
	if !enabled {
		s.generation++
		clear(s.spans)
	}
}

func (s *SyntaxLayer) Annotate(el *Element, line model.Line, side model.Side) {
	if !s.enabled || !line.OnSide(side) {
		return
	}
	for _, span := range s.spans[side][line.Number(side)] {
		el.AddSpan(span.Start, span.End, span.Class)
	}
}

// Process starts highlighting the two sides of diff. Results from earlier
// calls are discarded when they arrive.
func (s *SyntaxLayer) Process(diff *model.Diff) tea.Cmd {
	s.generation++
	clear(s.spans)
	if !s.enabled || diff == nil || diff.Binary {
		return nil
	}
	generation := s.generation
	id := s.id
	left, right := sideTexts(diff)
	path := diff.Path
	language := diff.Language
	return func() tea.Msg {
		msg := SyntaxDoneMsg{
			layerID:    id,
			generation: generation,
			spans:      make(map[model.Side]map[model.LineNumber][]Span),
			lastLine:   make(map[model.Side]model.LineNumber),
		}
		for side, text := range map[model.Side][]string{model.Left: left, model.Right: right} {
			msg.spans[side] = highlight(path, language, text)
			msg.lastLine[side] = model.LineNumber(len(text))
		}
		return msg
	}
}

// Update applies a finished pass and asks for every line to be annotated
// again.
func (s *SyntaxLayer) Update(msg tea.Msg) bool {
	done, ok := msg.(SyntaxDoneMsg)
	if !ok || done.layerID != s.id {
		return false
	}
	if done.generation != s.generation || !s.enabled {
		return true
	}
	s.spans = done.spans
	for _, side := range []model.Side{model.Left, model.Right} {
		if last := done.lastLine[side]; last > 0 {
			s.Notify(1, last, side)
		}
	}
	return true
}

// sideTexts rebuilds the text of each side from the chunks. Skipped regions
// are filled with empty lines so line numbers stay aligned.
func sideTexts(diff *model.Diff) (left, right []string) {
	for _, chunk := range diff.Content {
		if chunk.Skip > 0 {
			for range chunk.Skip {
				left = append(left, "")
				right = append(right, "")
			}
			continue
		}
		left = append(left, chunk.AB...)
		right = append(right, chunk.AB...)
		left = append(left, chunk.A...)
		right = append(right, chunk.B...)
	}
	return left, right
}

func lexerFor(path, language, source string) chroma.Lexer {
	lexer := lexers.Match(path)
	if lexer == nil && language != "" {
		lexer = lexers.Get(language)
	}
	if lexer == nil {
		lexer = lexers.Analyse(source)
	}
	if lexer == nil {
		return nil
	}
	return chroma.Coalesce(lexer)
}

func highlight(path, language string, lines []string) map[model.LineNumber][]Span {
	out := make(map[model.LineNumber][]Span)
	if len(lines) == 0 {
		return out
	}
	source := strings.Join(lines, "\n")
	lexer := lexerFor(path, language, source)
	if lexer == nil {
		return out
	}
	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return out
	}

	line := model.LineNumber(1)
	offset := 0
	for token := iterator(); token != chroma.EOF; token = iterator() {
		class := tokenClass(token.Type)
		parts := strings.Split(token.Value, "\n")
		for i, part := range parts {
			if i > 0 {
				line++
				offset = 0
			}
			n := utf8.RuneCountInString(part)
			if class != "" && n > 0 {
				out[line] = append(out[line], Span{Start: offset, End: offset + n, Class: class})
			}
			offset += n
		}
	}
	return out
}

func tokenClass(tt chroma.TokenType) string {
	switch tt {
	case chroma.Keyword, chroma.KeywordConstant, chroma.KeywordDeclaration,
		chroma.KeywordNamespace, chroma.KeywordPseudo, chroma.KeywordReserved,
		chroma.KeywordType:
		return "syntax keyword"
	case chroma.NameBuiltin, chroma.NameBuiltinPseudo:
		return "syntax builtin"
	case chroma.NameFunction, chroma.NameFunctionMagic:
		return "syntax function"
	case chroma.Operator, chroma.OperatorWord:
		return "syntax operator"
	}

	switch {
	case tt.InCategory(chroma.Comment):
		return "syntax comment"
	case tt.InSubCategory(chroma.String):
		return "syntax string"
	case tt.InSubCategory(chroma.Number):
		return "syntax number"
	case tt.InCategory(chroma.Name) && tt != chroma.Name:
		return "syntax name"
	default:
		return ""
	}
}
