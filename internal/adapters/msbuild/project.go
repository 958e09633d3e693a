// Package msbuild edits the dependency items of MSBuild project files in
// place. Only PackageReference and ProjectReference items with an Include
// attribute in top-level item groups are read or written; every other byte
// of the file is kept as it was.
package msbuild

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"nuref/internal/adapters/filesystem"
	"nuref/internal/domain"
	"nuref/internal/ports"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var attrEscaper = strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `>`, "&gt;", `"`, "&quot;")

// Model implements ports.ProjectModel for MSBuild files on disk
type Model struct{}

func NewModel() *Model { return &Model{} }

func (Model) Load(path string) (ports.ProjectHandle, error) {
	p, err := Open(path)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Project is an open project file. Edits are applied to an in-memory copy
// and written by Save.
type Project struct {
	path     string
	perm     os.FileMode
	original []byte
	data     []byte
	eol      string
	indent   string // One level of indentation, as used by the file

	items        []*itemRecord
	groups       []*groupRecord
	projectClose int // Offset of </Project>, -1 when absent
	nextID       int
	lastRemoved  *groupRecord
}

type itemRecord struct {
	item    domain.ProjectItem
	start   int
	end     int
	group   *groupRecord
	removed bool
}

type groupRecord struct {
	start       int
	openEnd     int
	closeStart  int // -1 for <ItemGroup/>
	closeEnd    int
	childIndent string
	removals    int
}

// Open reads and parses a project file
func Open(path string) (*Project, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &domain.FileNotFoundError{Path: path}
		}
		return nil, fmt.Errorf("failed to stat project: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project: %w", err)
	}

	p := &Project{
		path:     path,
		perm:     info.Mode().Perm(),
		original: data,
		data:     append([]byte(nil), data...),
	}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Project) Path() string { return p.path }

// Items lists the live items of kind in document order
func (p *Project) Items(kind domain.ItemKind) []domain.ProjectItem {
	var recs []*itemRecord
	for _, rec := range p.items {
		if !rec.removed && rec.item.Kind == kind {
			recs = append(recs, rec)
		}
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].start < recs[j].start })

	out := make([]domain.ProjectItem, len(recs))
	for i, rec := range recs {
		out[i] = rec.item
	}
	return out
}

// Remove deletes the item's element, and its line when nothing else is on it
func (p *Project) Remove(item domain.ProjectItem) error {
	rec := p.find(item.ID)
	if rec == nil {
		return domain.InvalidArgument("item", fmt.Sprintf("%d is not part of %s", item.ID, p.path))
	}

	from, to := p.lineSpan(rec.start, rec.end)
	p.splice(from, to-from, nil)
	rec.removed = true
	rec.group.removals++
	p.lastRemoved = rec.group
	return nil
}

// Add inserts a new item after the last item of the same kind, else into
// the group an item was last removed from, else into a new item group
func (p *Project) Add(kind domain.ItemKind, include string) (domain.ProjectItem, error) {
	if strings.TrimSpace(include) == "" {
		return domain.ProjectItem{}, domain.InvalidArgument("include", "is required")
	}

	elem := fmt.Sprintf(`<%s Include="%s" />`, kind, attrEscaper.Replace(include))
	item := domain.ProjectItem{ID: p.nextID, Kind: kind, Include: include}

	var (
		pos    int
		text   string
		offset int
		group  *groupRecord
	)

	switch last, g := p.lastLive(kind), p.lastRemoved; {
	case last != nil:
		pos, text, offset = p.afterItem(last, elem)
		group = last.group
	case g != nil && g.closeStart >= 0:
		pos, text, offset = p.beforeClose(g, elem)
		group = g
	case p.projectClose >= 0:
		return p.addGroup(item, elem)
	default:
		return domain.ProjectItem{}, fmt.Errorf("%s has no </Project> element", p.path)
	}

	p.splice(pos, 0, []byte(text))
	p.items = append(p.items, &itemRecord{
		item:  item,
		start: pos + offset,
		end:   pos + offset + len(elem),
		group: group,
	})
	p.nextID++
	return item, nil
}

// Modified reports whether Save would change the file
func (p *Project) Modified() bool {
	return !bytes.Equal(p.rendered(), p.original)
}

// Save writes pending edits atomically and re-reads the result. Item ids
// are reassigned, so items must be listed again after a save.
func (p *Project) Save() error {
	out := p.rendered()
	if bytes.Equal(out, p.original) {
		return nil
	}
	if err := filesystem.WriteFileAtomic(p.path, out, p.perm); err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}

	p.original = out
	p.data = append([]byte(nil), out...)
	p.lastRemoved = nil
	return p.parse()
}

// Content returns the document as Save would write it
func (p *Project) Content() []byte {
	return p.rendered()
}

func (p *Project) find(id int) *itemRecord {
	for _, rec := range p.items {
		if rec.item.ID == id && !rec.removed {
			return rec
		}
	}
	return nil
}

func (p *Project) lastLive(kind domain.ItemKind) *itemRecord {
	var last *itemRecord
	for _, rec := range p.items {
		if rec.removed || rec.item.Kind != kind || rec.group.closeStart < 0 {
			continue
		}
		if last == nil || rec.start > last.start {
			last = rec
		}
	}
	return last
}

func (p *Project) afterItem(last *itemRecord, elem string) (int, string, int) {
	ls := p.lineStart(last.start)
	le := p.lineEnd(last.end)
	if !p.blank(ls, last.start) || !p.blank(last.end, le) {
		return last.end, elem, 0
	}

	indent := string(p.data[ls:last.start])
	if le == len(p.data) && (le == 0 || p.data[le-1] != '\n') {
		return le, p.eol + indent + elem, len(p.eol) + len(indent)
	}
	return le, indent + elem + p.eol, len(indent)
}

func (p *Project) beforeClose(g *groupRecord, elem string) (int, string, int) {
	ls := p.lineStart(g.closeStart)
	if ls <= g.openEnd || !p.blank(ls, g.closeStart) {
		return g.closeStart, elem, 0
	}

	indent := g.childIndent
	if indent == "" {
		indent = string(p.data[ls:g.closeStart]) + p.indent
	}
	return ls, indent + elem + p.eol, len(indent)
}

func (p *Project) addGroup(item domain.ProjectItem, elem string) (domain.ProjectItem, error) {
	const open, closing = "<ItemGroup>", "</ItemGroup>"

	var (
		g          = &groupRecord{}
		pos        int
		text       string
		itemOffset int
		closeAt    int
	)
	if ls := p.lineStart(p.projectClose); p.blank(ls, p.projectClose) {
		unit := p.indent
		g.childIndent = unit + unit
		pos = ls
		text = unit + open + p.eol + g.childIndent + elem + p.eol + unit + closing + p.eol
		g.start = pos + len(unit)
		itemOffset = len(unit) + len(open) + len(p.eol) + len(g.childIndent)
		closeAt = itemOffset + len(elem) + len(p.eol) + len(unit)
	} else {
		pos = p.projectClose
		text = open + elem + closing
		g.start = pos
		itemOffset = len(open)
		closeAt = itemOffset + len(elem)
	}

	p.splice(pos, 0, []byte(text))

	g.openEnd = g.start + len(open)
	g.closeStart = pos + closeAt
	g.closeEnd = g.closeStart + len(closing)
	p.groups = append(p.groups, g)
	p.items = append(p.items, &itemRecord{
		item:  item,
		start: pos + itemOffset,
		end:   pos + itemOffset + len(elem),
		group: g,
	})
	p.nextID++
	return item, nil
}

// splice replaces data[pos:pos+del] with ins and moves every tracked
// offset. Start offsets at pos move with inserted text; end offsets stay.
func (p *Project) splice(pos, del int, ins []byte) {
	out := make([]byte, 0, len(p.data)-del+len(ins))
	out = append(out, p.data[:pos]...)
	out = append(out, ins...)
	out = append(out, p.data[pos+del:]...)
	p.data = out

	delta := len(ins) - del
	moveStart := func(o *int) {
		switch {
		case *o < 0:
		case *o >= pos+del:
			*o += delta
		case *o > pos:
			*o = pos
		}
	}
	moveEnd := func(o *int) {
		switch {
		case *o <= pos:
		case *o >= pos+del:
			*o += delta
		default:
			*o = pos
		}
	}

	for _, rec := range p.items {
		moveStart(&rec.start)
		moveEnd(&rec.end)
	}
	for _, g := range p.groups {
		moveStart(&g.start)
		moveEnd(&g.openEnd)
		moveStart(&g.closeStart)
		moveEnd(&g.closeEnd)
	}
	moveStart(&p.projectClose)
}

// rendered drops item groups emptied by removals
func (p *Project) rendered() []byte {
	type span struct{ from, to int }
	var drop []span

	for _, g := range p.groups {
		if g.removals == 0 || g.closeStart < 0 || !p.blank(g.openEnd, g.closeStart) {
			continue
		}
		live := false
		for _, rec := range p.items {
			if rec.group == g && !rec.removed {
				live = true
				break
			}
		}
		if !live {
			from, to := p.lineSpan(g.start, g.closeEnd)
			drop = append(drop, span{from, to})
		}
	}
	if len(drop) == 0 {
		return p.data
	}

	sort.Slice(drop, func(i, j int) bool { return drop[i].from < drop[j].from })
	out := make([]byte, 0, len(p.data))
	prev := 0
	for _, s := range drop {
		out = append(out, p.data[prev:s.from]...)
		prev = s.to
	}
	return append(out, p.data[prev:]...)
}

// lineSpan widens [start, end) to whole lines when nothing else shares them
func (p *Project) lineSpan(start, end int) (int, int) {
	ls := p.lineStart(start)
	le := p.lineEnd(end)
	if p.blank(ls, start) && p.blank(end, le) {
		return ls, le
	}
	return start, end
}

func (p *Project) lineStart(pos int) int {
	for pos > 0 && p.data[pos-1] != '\n' {
		pos--
	}
	return pos
}

// lineEnd returns the offset just past the newline ending pos's line
func (p *Project) lineEnd(pos int) int {
	for pos < len(p.data) && p.data[pos] != '\n' {
		pos++
	}
	if pos < len(p.data) {
		pos++
	}
	return pos
}

func (p *Project) blank(from, to int) bool {
	for _, c := range p.data[from:to] {
		if c != ' ' && c != '\t' && c != '\r' && c != '\n' {
			return false
		}
	}
	return true
}

func (p *Project) parse() error {
	p.items = nil
	p.groups = nil
	p.projectClose = -1
	p.nextID = 0
	p.eol = "\n"
	if bytes.Contains(p.data, []byte("\r\n")) {
		p.eol = "\r\n"
	}
	p.indent = ""

	bom := 0
	if bytes.HasPrefix(p.data, utf8BOM) {
		bom = len(utf8BOM)
	}

	d := xml.NewDecoder(bytes.NewReader(p.data[bom:]))
	var (
		stack     []string
		group     *groupRecord
		current   *itemRecord
		itemDepth int
		inVersion bool
	)

	for {
		start := int(d.InputOffset()) + bom
		tok, err := d.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", p.path, err)
		}
		end := int(d.InputOffset()) + bom

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			selfClosing := end-start >= 2 && string(p.data[end-2:end]) == "/>"
			depth := len(stack)

			if depth == 1 && p.indent == "" {
				if ls := p.lineStart(start); p.blank(ls, start) {
					p.indent = string(p.data[ls:start])
				}
			}

			switch {
			case name == "ItemGroup" && depth == 1 && stack[0] == "Project":
				g := &groupRecord{start: start, openEnd: end, closeStart: -1, closeEnd: end}
				p.groups = append(p.groups, g)
				if !selfClosing {
					group = g
				}
			case group != nil && depth == 2 && (name == string(domain.PackageReference) || name == string(domain.ProjectReference)):
				include := attrValue(t, "Include")
				if include == "" {
					break
				}
				rec := &itemRecord{
					item: domain.ProjectItem{
						ID:      p.nextID,
						Kind:    domain.ItemKind(name),
						Include: include,
						Version: attrValue(t, "Version"),
					},
					start: start,
					end:   end,
					group: group,
				}
				p.nextID++
				p.items = append(p.items, rec)
				if group.childIndent == "" {
					if ls := p.lineStart(start); p.blank(ls, start) {
						group.childIndent = string(p.data[ls:start])
					}
				}
				if !selfClosing {
					current = rec
					itemDepth = depth + 1
				}
			case current != nil && name == "Version" && depth == itemDepth:
				inVersion = true
			}
			stack = append(stack, name)

		case xml.EndElement:
			if len(stack) == 0 || stack[len(stack)-1] != t.Name.Local {
				return fmt.Errorf("failed to parse %s: unexpected </%s>", p.path, t.Name.Local)
			}
			stack = stack[:len(stack)-1]
			depth := len(stack)

			switch {
			case current != nil && depth == itemDepth-1:
				current.end = end
				current = nil
			case inVersion && depth == itemDepth:
				inVersion = false
			case group != nil && depth == 1:
				group.closeStart = start
				group.closeEnd = end
				group = nil
			case depth == 0 && t.Name.Local == "Project":
				p.projectClose = start
			}

		case xml.CharData:
			if inVersion && current.item.Version == "" {
				current.item.Version = strings.TrimSpace(string(t))
			}
		}
	}

	if len(stack) > 0 {
		return fmt.Errorf("failed to parse %s: unclosed <%s>", p.path, stack[len(stack)-1])
	}
	if p.indent == "" {
		p.indent = "  "
	}
	return nil
}

func attrValue(t xml.StartElement, name string) string {
	for _, a := range t.Attr {
		if strings.EqualFold(a.Name.Local, name) {
			return a.Value
		}
	}
	return ""
}
