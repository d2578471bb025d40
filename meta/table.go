package meta

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// GlobalTag is the pseudo element whose attribute rules apply to every
// element once the table is initialized.
const GlobalTag = "*"

// Table maps tag names to element metadata. All sources must be loaded
// before Init; afterwards the table is read-only and safe for concurrent
// use.
type Table struct {
	elements map[string]*Element
	frozen   bool
	log      *logrus.Entry
}

type TableOption func(*Table)

// WithLogger sets the entry used for load diagnostics.
func WithLogger(log *logrus.Entry) TableOption {
	return func(t *Table) {
		t.log = log
	}
}

func NewTable(opts ...TableOption) *Table {
	t := &Table{
		elements: map[string]*Element{},
		log:      logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Load adds the definitions of one source. A tag loaded again replaces the
// previous entry unless it declares inherit, in which case the fields it
// leaves out are copied from the inherited entry as it is right now.
// Within one source an entry may inherit from one defined later in it:
// entries are loaded in inheritance order, a cycle fails with CycleError
// and a target found neither in the source nor in the table fails with
// InheritError. On error nothing from the source is added.
func (t *Table) Load(source string, defs []Definition) error {
	return t.load(&decoder{source: source}, defs)
}

func (t *Table) load(d *decoder, defs []Definition) error {
	if t.frozen {
		return errors.Wrapf(ErrFrozen, "loading %q", d.source)
	}
	ordered, err := orderByInheritance(d.source, defs)
	if err != nil {
		return err
	}

	staged := make(map[string]*Element, len(ordered))
	resolve := func(tag string) *Element {
		if el, ok := staged[tag]; ok {
			return el
		}
		return t.elements[tag]
	}

	for _, def := range ordered {
		tag := strings.ToLower(def.TagName)
		if tag == "" {
			return &SchemaError{Source: d.source, Path: "/", Message: "element definition without tag name"}
		}

		var el *Element
		if inherit := inheritOf(def); inherit != "" {
			base := resolve(inherit)
			if base == nil {
				return &InheritError{Source: d.source, TagName: tag, Inherit: inherit}
			}
			el = base.clone(tag)
			el.Inherit = inherit
			t.log.WithFields(logrus.Fields{
				"source":  d.source,
				"element": tag,
				"inherit": inherit,
			}).Debug("resolved inherited element")
		} else {
			el = newElement(tag)
		}

		if err := d.decodeInto(el, def); err != nil {
			return err
		}
		staged[tag] = el
	}

	for tag, el := range staged {
		t.elements[tag] = el
	}
	t.log.WithFields(logrus.Fields{
		"source":   d.source,
		"elements": len(staged),
	}).Debug("loaded element metadata")
	return nil
}

// Init ends the load phase: the attribute rules of the global element are
// merged into every element and the table is frozen. Calling Init again is
// a no-op.
func (t *Table) Init() error {
	if t.frozen {
		return nil
	}
	if global, ok := t.elements[GlobalTag]; ok {
		delete(t.elements, GlobalTag)
		for tag, el := range t.elements {
			merged := el.clone(tag)
			for key, rule := range global.Attributes {
				if _, own := merged.Attributes[key]; !own {
					merged.Attributes[key] = rule
				}
			}
			t.elements[tag] = merged
		}
	}
	t.frozen = true
	t.log.WithField("elements", len(t.elements)).Debug("element metadata frozen")
	return nil
}

// Frozen returns true once Init has been called.
func (t *Table) Frozen() bool {
	return t.frozen
}

// Get returns the metadata for a tag or nil when the tag is unknown.
func (t *Table) Get(tagName string) *Element {
	if t == nil {
		return nil
	}
	return t.elements[strings.ToLower(tagName)]
}

// Len returns the number of known elements.
func (t *Table) Len() int {
	return len(t.elements)
}

// Tags returns every known tag name, sorted.
func (t *Table) Tags() []string {
	tags := make([]string, 0, len(t.elements))
	for tag := range t.elements {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// TagsWithProperty returns the sorted tags whose flag or constant category
// named by property is set. Categories depending on the node are included
// when they hold for a node without attributes or ancestors.
func (t *Table) TagsWithProperty(property string) []string {
	var tags []string
	for _, tag := range t.Tags() {
		el := t.elements[tag]
		if el.hasProperty(property) {
			tags = append(tags, tag)
		}
	}
	return tags
}

// TagsDerivedFrom returns the sorted tags inheriting, directly or not,
// from tagName, tagName included when known.
func (t *Table) TagsDerivedFrom(tagName string) []string {
	tagName = strings.ToLower(tagName)
	var tags []string
	for _, tag := range t.Tags() {
		for cur, seen := tag, 0; cur != "" && seen <= len(t.elements); seen++ {
			if cur == tagName {
				tags = append(tags, tag)
				break
			}
			el := t.elements[cur]
			if el == nil || el.Inherit == cur {
				break
			}
			cur = el.Inherit
		}
	}
	return tags
}

// bareNode is a node without attributes or ancestors, used to evaluate
// predicates outside of a document.
type bareNode string

func (n bareNode) TagName() string { return string(n) }
func (bareNode) HasAttribute(string) bool { return false }
func (bareNode) AttributeValue(string) (string, bool) { return "", false }
func (bareNode) HasAncestor(string) bool { return false }

func (e *Element) hasProperty(property string) bool {
	if field, ok := flagFields[property]; ok {
		return *field(e)
	}
	if field, ok := propertyFields[property]; ok {
		p := *field(e)
		return p != nil && p(bareNode(e.TagName))
	}
	return false
}
