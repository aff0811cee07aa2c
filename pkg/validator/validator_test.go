package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type filter struct {
	Name string `form:"name" binding:"regionname"`
}

func TestRegionNameValidator(t *testing.T) {
	v := validator.New()
	v.SetTagName("binding")
	Register(v)

	tests := []struct {
		name  string
		valid bool
	}{
		{name: "", valid: true},
		{name: "   ", valid: true},
		{name: "Europe", valid: true},
		{name: "south east asia", valid: true},
		{name: "Australia-Oceania", valid: true},
		{name: " euro ", valid: true},
		{name: "---", valid: false},
		{name: "euro1", valid: false},
		{name: "euro%", valid: false},
		{name: "Ευρώπη", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(filter{Name: tt.name})
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
