package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/form"
)

// PDFFiller fills AcroForm fields in PDF templates.
type PDFFiller struct{}

func NewPDFFiller() *PDFFiller {
	return &PDFFiller{}
}

// fill JSON shape consumed by pdfcpu's form filling
type fillTextField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type fillCheckBox struct {
	Name  string `json:"name"`
	Value bool   `json:"value"`
}

type fillForm struct {
	TextFields []fillTextField `json:"textfield,omitempty"`
	CheckBoxes []fillCheckBox  `json:"checkbox,omitempty"`
}

type fillDocument struct {
	Forms []fillForm `json:"forms"`
}

// ListFields returns the names of the form fields present in the template.
func (f *PDFFiller) ListFields(template []byte) ([]string, error) {
	fields, err := api.FormFields(bytes.NewReader(template), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read form fields: %w", err)
	}

	names := make([]string, 0, len(fields))
	for _, field := range fields {
		names = append(names, field.Name)
	}
	return names, nil
}

// Fill writes the given values into the template's form fields and returns
// the filled PDF. Values whose field name is absent from the template, or
// whose field is of an incompatible type, are skipped without error. A
// template without any matching field is returned unchanged.
func (f *PDFFiller) Fill(template []byte, values FieldValues) ([]byte, error) {
	fields, err := api.FormFields(bytes.NewReader(template), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read form fields: %w", err)
	}

	var spec fillForm
	for _, field := range fields {
		switch field.Typ {
		case form.FTText, form.FTDate:
			if value, ok := values.Text[field.Name]; ok {
				spec.TextFields = append(spec.TextFields, fillTextField{Name: field.Name, Value: value})
			}
		case form.FTCheckBox:
			if checked, ok := values.Checkboxes[field.Name]; ok {
				spec.CheckBoxes = append(spec.CheckBoxes, fillCheckBox{Name: field.Name, Value: checked})
			}
		}
	}

	if len(spec.TextFields) == 0 && len(spec.CheckBoxes) == 0 {
		return template, nil
	}

	sort.Slice(spec.TextFields, func(i, j int) bool { return spec.TextFields[i].Name < spec.TextFields[j].Name })
	sort.Slice(spec.CheckBoxes, func(i, j int) bool { return spec.CheckBoxes[i].Name < spec.CheckBoxes[j].Name })

	payload, err := json.Marshal(fillDocument{Forms: []fillForm{spec}})
	if err != nil {
		return nil, fmt.Errorf("failed to encode fill payload: %w", err)
	}

	var out bytes.Buffer
	if err := api.FillForm(bytes.NewReader(template), bytes.NewReader(payload), &out, nil); err != nil {
		return nil, fmt.Errorf("failed to fill form: %w", err)
	}

	return out.Bytes(), nil
}
