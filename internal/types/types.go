// Package types defines shared types used across the application.
package types

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// FieldType is the semantic role assigned to a captured element.
type FieldType string

const (
	FieldTypeImage       FieldType = "image"
	FieldTypeLink        FieldType = "link"
	FieldTypePrice       FieldType = "price"
	FieldTypeTitle       FieldType = "title"
	FieldTypeDescription FieldType = "description"
	FieldTypeText        FieldType = "text"
)

// FieldTypes lists all field types in the order they are offered to the user.
var FieldTypes = []FieldType{
	FieldTypeImage,
	FieldTypeTitle,
	FieldTypeDescription,
	FieldTypePrice,
	FieldTypeLink,
	FieldTypeText,
}

// ParseFieldType returns the FieldType for s or an error if s is not a known type.
func ParseFieldType(s string) (FieldType, error) {
	for _, ft := range FieldTypes {
		if string(ft) == s {
			return ft, nil
		}
	}
	return "", fmt.Errorf("unknown field type '%s'", s)
}

// Record is one captured field. Selector and Type are fixed at capture time,
// only Value may be edited afterwards.
type Record struct {
	ID         string    `json:"id" yaml:"id"`
	Type       FieldType `json:"type" yaml:"type"`
	Selector   string    `json:"selector" yaml:"selector"`
	Value      string    `json:"value" yaml:"value"`
	SourceURL  string    `json:"url" yaml:"url"`
	CapturedAt time.Time `json:"capturedAt" yaml:"captured_at"`
}

// Template is a named mapping from field type to selector. If ContainerSelector
// is set the selectors are evaluated within every element matching it.
type Template struct {
	Name              string               `json:"name" yaml:"name" validate:"required"`
	Selectors         map[FieldType]string `json:"selectors" yaml:"selectors" validate:"required,min=1,dive,keys,oneof=image link price title description text,endkeys,required"`
	ContainerSelector string               `json:"containerSelector,omitempty" yaml:"container_selector,omitempty"`
	CreatedAt         time.Time            `json:"createdAt" yaml:"created_at,omitempty"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validate checks that the template has a name and at least one selector
// keyed by a known field type.
func (t *Template) Validate() error {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("invalid template '%s': %w", t.Name, err)
	}
	return nil
}

// Session is a persisted batch of records captured from one page.
type Session struct {
	ID           int64     `json:"id" yaml:"id"`
	URL          string    `json:"url" yaml:"url"`
	Title        string    `json:"title,omitempty" yaml:"title,omitempty"`
	Records      []Record  `json:"data" yaml:"data"`
	TemplateName string    `json:"templateName,omitempty" yaml:"template_name,omitempty"`
	CreatedAt    time.Time `json:"createdAt" yaml:"created_at"`
}

// Item is one group of field values, produced when a template is applied to a page.
type Item struct {
	URL       string               `json:"url"`
	Timestamp time.Time            `json:"timestamp"`
	Data      map[FieldType]string `json:"data"`
}

// Interaction represents a simple user interaction with a webpage
type Interaction struct {
	Type     string `yaml:"type,omitempty"`
	Selector string `yaml:"selector,omitempty"`
	Count    int    `yaml:"count,omitempty"`
	Delay    int    `yaml:"delay,omitempty"`
}

const (
	InteractionTypeClick  = "click"
	InteractionTypeScroll = "scroll"
)
