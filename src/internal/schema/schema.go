package schema

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const (
	MaxTextLen  = 1000
	MaxShelfLen = 100

	DefaultShelf     = "Queued"
	PlaceholderCover = "/images/book-placeholder.svg"
)

// Book is a single library record stored on disk as YAML.
type Book struct {
	ID          string    `yaml:"id" json:"id"`
	Title       string    `yaml:"title" json:"title"`
	Authors     Authors   `yaml:"authors" json:"authors"`
	CoverImage  string    `yaml:"cover_image,omitempty" json:"coverImage,omitempty"`
	Shelf       string    `yaml:"shelf" json:"shelf"`
	Publishable bool      `yaml:"publishable" json:"isPublishable"`
	Source      string    `yaml:"source,omitempty" json:"source,omitempty"`
	AddedAt     time.Time `yaml:"added_at" json:"addedAt"`
}

// Authors is the display form of a book's authors ("A, B"). On disk it may
// also be written as a YAML sequence, which is joined on load.
type Authors string

func (a *Authors) UnmarshalYAML(value *yaml.Node) error {
	if value == nil {
		*a = ""
		return nil
	}
	switch value.Kind {
	case yaml.ScalarNode:
		s := strings.TrimSpace(value.Value)
		if s == "null" || s == "~" {
			s = ""
		}
		*a = Authors(s)
		return nil
	case yaml.SequenceNode:
		var names []string
		for _, n := range value.Content {
			if n.Kind != yaml.ScalarNode {
				continue
			}
			if s := strings.TrimSpace(n.Value); s != "" {
				names = append(names, s)
			}
		}
		*a = Authors(strings.Join(names, ", "))
		return nil
	case yaml.MappingNode:
		var named struct {
			Name string `yaml:"name"`
		}
		if err := value.Decode(&named); err != nil {
			return err
		}
		*a = Authors(strings.TrimSpace(named.Name))
		return nil
	default:
		*a = ""
		return nil
	}
}

func (a Authors) String() string { return string(a) }

// Validate applies the record rules enforced before anything is written.
func (b *Book) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return errors.New("id is required")
	}
	if strings.TrimSpace(b.Title) == "" {
		return errors.New("title is required")
	}
	if strings.TrimSpace(string(b.Authors)) == "" {
		return errors.New("authors is required")
	}
	if utf8.RuneCountInString(b.Title) > MaxTextLen {
		return fmt.Errorf("title exceeds %d characters", MaxTextLen)
	}
	if utf8.RuneCountInString(string(b.Authors)) > MaxTextLen {
		return fmt.Errorf("authors exceeds %d characters", MaxTextLen)
	}
	if utf8.RuneCountInString(b.Shelf) > MaxShelfLen {
		return fmt.Errorf("shelf exceeds %d characters", MaxShelfLen)
	}
	return nil
}

// NewID returns a fresh random record id.
func NewID() string { return uuid.NewString() }
