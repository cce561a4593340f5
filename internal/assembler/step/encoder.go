package step

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"bim-gateway/internal/assembler/models"
)

// ============================================================
// IFC4 STEP physical file encoder
// ============================================================

const Schema = "IFC4"

type Header struct {
	FileName     string
	Author       string
	Organization string
	Application  string
	Timestamp    time.Time
}

type Encoder struct {
	w      io.Writer
	header Header
}

func NewEncoder(w io.Writer, header Header) *Encoder {
	return &Encoder{w: w, header: header}
}

// Marshal encodes g into a complete .ifc document.
func Marshal(g *models.EntityGraph, header Header) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf, header).Encode(g); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes the graph. Instances are numbered in a fixed order: owner
// history, spatial entities, elements, property sets, relationships.
func (e *Encoder) Encode(g *models.EntityGraph) error {
	s := newSerializer()
	if err := s.graph(g); err != nil {
		return err
	}

	var out strings.Builder
	e.writeHeader(&out)
	out.WriteString("DATA;\n")
	for i, line := range s.lines {
		fmt.Fprintf(&out, "#%d=%s;\n", i+1, line)
	}
	out.WriteString("ENDSEC;\nEND-ISO-10303-21;\n")

	_, err := io.WriteString(e.w, out.String())
	return err
}

func (e *Encoder) writeHeader(out *strings.Builder) {
	h := e.header
	ts := h.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	app := h.Application
	if app == "" {
		app = "bim-gateway"
	}

	out.WriteString("ISO-10303-21;\nHEADER;\n")
	out.WriteString("FILE_DESCRIPTION(('ViewDefinition [CoordinationView]'),'2;1');\n")
	fmt.Fprintf(out, "FILE_NAME(%s,%s,(%s),(%s),%s,%s,'');\n",
		quote(h.FileName), quote(ts.UTC().Format("2006-01-02T15:04:05")),
		quote(h.Author), quote(h.Organization), quote(app), quote(app))
	fmt.Fprintf(out, "FILE_SCHEMA(('%s'));\n", Schema)
	out.WriteString("ENDSEC;\n")
}

// ============================================================
// Serializer
// ============================================================

type serializer struct {
	lines        []string
	refs         map[string]int // model identifier -> instance number
	ownerHistory int
}

func newSerializer() *serializer {
	return &serializer{refs: make(map[string]int)}
}

func (s *serializer) add(line string) int {
	s.lines = append(s.lines, line)
	return len(s.lines)
}

func (s *serializer) graph(g *models.EntityGraph) error {
	s.ownerHistory = s.add("IFCOWNERHISTORY($,$,$,$,$,$,$,$)")

	h := g.Hierarchy
	for _, ent := range []models.Entity{h.Project, h.Site, h.Building, h.Storey} {
		if err := s.entity(ent); err != nil {
			return err
		}
	}
	for _, ent := range g.Elements {
		if err := s.entity(ent); err != nil {
			return err
		}
	}
	for _, ps := range g.PropertySets {
		if err := s.propertySet(ps); err != nil {
			return err
		}
	}
	for _, rel := range g.Relationships {
		if err := s.relationship(rel); err != nil {
			return err
		}
	}
	return nil
}

func (s *serializer) entity(ent models.Entity) error {
	guid, err := CompressGUID(ent.ID)
	if err != nil {
		return err
	}
	if _, dup := s.refs[ent.ID]; dup {
		return fmt.Errorf("%w: %s encoded twice", models.ErrConsistency, ent.ID)
	}

	head := fmt.Sprintf("'%s',#%d,%s,$", guid, s.ownerHistory, quote(ent.Name))
	var line string
	switch ent.Kind {
	case models.KindProject:
		line = fmt.Sprintf("IFCPROJECT(%s,$,$,$,$,$)", head)
	case models.KindSite:
		line = fmt.Sprintf("IFCSITE(%s,$,$,$,$,.ELEMENT.,$,$,$,$,$)", head)
	case models.KindBuilding:
		line = fmt.Sprintf("IFCBUILDING(%s,$,$,$,$,.ELEMENT.,$,$,$)", head)
	case models.KindBuildingStorey:
		elevation := "$"
		if v, ok := ent.Attributes["Elevation"]; ok && v.Type == models.ValueReal {
			if err := v.Validate(); err != nil {
				return fmt.Errorf("storey %s elevation: %w", ent.ID, err)
			}
			elevation = formatReal(v.Real)
		}
		line = fmt.Sprintf("IFCBUILDINGSTOREY(%s,$,$,$,$,.ELEMENT.,%s)", head, elevation)
	default:
		if !ent.Kind.IsElement() {
			return fmt.Errorf("encode %s: unsupported kind", ent.Kind)
		}
		objectType := "$"
		if v, ok := ent.Attributes["ObjectType"]; ok && v.Str != "" {
			objectType = quote(v.Str)
		}
		line = fmt.Sprintf("%s(%s,%s,$,$,$,$)", strings.ToUpper(ent.Kind.String()), head, objectType)
	}

	s.refs[ent.ID] = s.add(line)
	return nil
}

func (s *serializer) propertySet(ps models.PropertySet) error {
	guid, err := CompressGUID(ps.ID)
	if err != nil {
		return err
	}

	props := make([]int, 0, len(ps.Properties))
	for _, p := range ps.Properties {
		line, err := s.property(p)
		if err != nil {
			return fmt.Errorf("property set %s: %w", ps.Name, err)
		}
		props = append(props, s.add(line))
	}

	s.refs[ps.ID] = s.add(fmt.Sprintf("IFCPROPERTYSET('%s',#%d,%s,$,%s)", guid, s.ownerHistory, quote(ps.Name), refList(props)))
	return nil
}

func (s *serializer) property(p models.Property) (string, error) {
	v := p.Value
	if err := v.Validate(); err != nil {
		return "", fmt.Errorf("property %s: %w", p.Name, err)
	}
	switch v.Type {
	case models.ValueReference:
		target, ok := s.refs[v.Str]
		if !ok {
			return "", fmt.Errorf("property %s references %s: %w", p.Name, v.Str, models.ErrNotFound)
		}
		return fmt.Sprintf("IFCPROPERTYREFERENCEVALUE(%s,$,$,#%d)", quote(p.Name), target), nil
	case models.ValueLabel:
		return singleValue(p.Name, "IFCLABEL("+quote(v.Str)+")"), nil
	case models.ValueText:
		return singleValue(p.Name, "IFCTEXT("+quote(v.Str)+")"), nil
	case models.ValueBoolean:
		return singleValue(p.Name, "IFCBOOLEAN("+formatBool(v.Bool)+")"), nil
	case models.ValueReal:
		return singleValue(p.Name, "IFCREAL("+formatReal(v.Real)+")"), nil
	}
	return "", fmt.Errorf("property %s: %w: untyped value", p.Name, models.ErrInvalidSpec)
}

func singleValue(name, nominal string) string {
	return fmt.Sprintf("IFCPROPERTYSINGLEVALUE(%s,$,%s,$)", quote(name), nominal)
}

func (s *serializer) relationship(rel models.Relationship) error {
	guid, err := CompressGUID(rel.ID)
	if err != nil {
		return err
	}
	relating, ok := s.refs[rel.Relating]
	if !ok {
		return fmt.Errorf("relationship %s relating %s: %w", rel.ID, rel.Relating, models.ErrNotFound)
	}
	related := make([]int, 0, len(rel.Related))
	for _, id := range rel.Related {
		ref, ok := s.refs[id]
		if !ok {
			return fmt.Errorf("relationship %s related %s: %w", rel.ID, id, models.ErrNotFound)
		}
		related = append(related, ref)
	}

	head := fmt.Sprintf("'%s',#%d,$,$", guid, s.ownerHistory)
	switch rel.Kind {
	case models.KindRelAggregates:
		s.add(fmt.Sprintf("IFCRELAGGREGATES(%s,#%d,%s)", head, relating, refList(related)))
	case models.KindRelContainedInSpatialStructure:
		s.add(fmt.Sprintf("IFCRELCONTAINEDINSPATIALSTRUCTURE(%s,%s,#%d)", head, refList(related), relating))
	case models.KindRelDefinesByProperties:
		s.add(fmt.Sprintf("IFCRELDEFINESBYPROPERTIES(%s,%s,#%d)", head, refList(related), relating))
	default:
		return fmt.Errorf("encode relationship %s: unsupported kind %s", rel.ID, rel.Kind)
	}
	return nil
}

// ============================================================
// Formatting helpers
// ============================================================

func refList(refs []int) string {
	parts := make([]string, len(refs))
	for i, r := range refs {
		parts[i] = "#" + strconv.Itoa(r)
	}
	return "(" + strings.Join(parts, ",") + ")"
}

func formatBool(b bool) string {
	if b {
		return ".T."
	}
	return ".F."
}

// formatReal renders a STEP REAL, which always carries a decimal point.
func formatReal(f float64) string {
	out := strconv.FormatFloat(f, 'G', -1, 64)
	mantissa, exponent, hasExp := strings.Cut(out, "E")
	if !strings.Contains(mantissa, ".") {
		mantissa += "."
	}
	if hasExp {
		return mantissa + "E" + exponent
	}
	return mantissa
}

// quote renders a quoted STEP string. Quotes and backslashes are doubled and
// anything outside printable ASCII uses the \X2\ / \X4\ escapes.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		switch {
		case r == '\'':
			b.WriteString("''")
		case r == '\\':
			b.WriteString(`\\`)
		case r >= 0x20 && r < 0x7f:
			b.WriteRune(r)
		case r <= 0xffff:
			fmt.Fprintf(&b, `\X2\%04X\X0\`, r)
		default:
			fmt.Fprintf(&b, `\X4\%08X\X0\`, r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}
