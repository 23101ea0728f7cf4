package extractor

import (
	"fmt"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"speechable/internal/domain"
)

// Block is one block-level element of a document in reading order.
// Heading is 1-6 for h1-h6 and 0 for everything else.
type Block struct {
	Heading int
	Text    string
}

// blockSelector matches the elements CollectBlocks emits on its own. Only
// these make an enclosing container redundant; lists and tables are walked
// through to their items and cells.
const blockSelector = "h1,h2,h3,h4,h5,h6,p,pre,li,blockquote,div,section,article,main,td,th,dt,dd,figcaption"

var (
	leafTags      = map[string]bool{"p": true, "pre": true}
	containerTags = map[string]bool{
		"div": true, "section": true, "article": true, "main": true,
		"li": true, "blockquote": true,
		"td": true, "th": true, "dt": true, "dd": true, "figcaption": true,
	}
	skippedTags = map[string]bool{
		"script": true, "style": true, "noscript": true, "template": true,
		"nav": true, "svg": true, "button": true, "form": true,
	}
)

// CollectBlocks parses an HTML fragment and returns its narratable blocks in
// document order. A container that holds other block elements is not
// emitted itself; its children are.
func CollectBlocks(fragment string) ([]Block, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}
	var blocks []Block
	var walk func(*goquery.Selection)
	walk = func(parent *goquery.Selection) {
		parent.Children().Each(func(_ int, s *goquery.Selection) {
			name := goquery.NodeName(s)
			switch {
			case skippedTags[name]:
			case headingLevel(name) > 0:
				blocks = append(blocks, Block{Heading: headingLevel(name), Text: s.Text()})
			case leafTags[name]:
				blocks = append(blocks, Block{Text: s.Text()})
			case containerTags[name]:
				if s.Find(blockSelector).Length() > 0 {
					walk(s)
					return
				}
				blocks = append(blocks, Block{Text: s.Text()})
			default:
				walk(s)
			}
		})
	}
	walk(doc.Find("body"))
	return blocks, nil
}

func headingLevel(name string) int {
	if len(name) == 2 && name[0] == 'h' && name[1] >= '1' && name[1] <= '6' {
		return int(name[1] - '0')
	}
	return 0
}

// BuildSections folds blocks into sections. A heading opens a new section;
// any other non-blank block becomes a speech unit of the open section. An
// untitled leading section takes docTitle at level 1.
func BuildSections(blocks []Block, docTitle string) []domain.Section {
	var st foldState
	for _, b := range blocks {
		st = st.step(b)
	}
	sections := st.flush().sections
	if sections == nil {
		return []domain.Section{}
	}
	if sections[0].Title == "" {
		sections[0].Title = collapseSpace(docTitle)
		sections[0].Level = 1
	}
	return sections
}

type foldState struct {
	sections []domain.Section
	current  *domain.Section
}

func (st foldState) step(b Block) foldState {
	text := collapseSpace(b.Text)
	if text == "" {
		return st
	}
	if b.Heading > 0 {
		st = st.flush()
		st.current = &domain.Section{
			Title:       text,
			Level:       min(b.Heading, domain.MaxSectionLevel),
			SpeechUnits: []domain.SpeechUnit{},
		}
		return st
	}
	next := domain.Section{SpeechUnits: []domain.SpeechUnit{}}
	if st.current != nil {
		next = *st.current
	}
	next.SpeechUnits = append(slices.Clip(next.SpeechUnits), domain.SpeechUnit{
		Text:     text,
		ReaderID: domain.DefaultReaderID,
	})
	st.current = &next
	return st
}

func (st foldState) flush() foldState {
	if st.current == nil {
		return st
	}
	return foldState{sections: append(slices.Clip(st.sections), *st.current)}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TextBlocks splits plain text into paragraph blocks on blank lines.
func TextBlocks(text string) []Block {
	var blocks []Block
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		if p := collapseSpace(para); p != "" {
			blocks = append(blocks, Block{Text: p})
		}
	}
	return blocks
}
