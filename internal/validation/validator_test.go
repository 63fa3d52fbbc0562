package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inner struct {
	Host string `validate:"required"`
	Port int    `validate:"min=1,max=65535"`
}

type outer struct {
	Name      string  `validate:"required,min=3"`
	Transport string  `validate:"oneof=mqtt nats"`
	Speed     float64 `validate:"min=0"`
	Broker    inner
	Items     []inner `validate:"dive"`
	Loose     []inner
}

func valid() outer {
	return outer{
		Name:      "replayer",
		Transport: "mqtt",
		Speed:     1,
		Broker:    inner{Host: "localhost", Port: 1883},
		Items:     []inner{{Host: "a", Port: 1}},
		Loose:     []inner{{}},
	}
}

func TestValidate(t *testing.T) {
	v := NewValidator()

	s := valid()
	require.NoError(t, v.Validate(&s))
	require.NoError(t, v.Validate(s))

	tests := []struct {
		name    string
		mutate  func(*outer)
		wantErr string
	}{
		{"required", func(o *outer) { o.Name = "" }, "Name: field is required"},
		{"min length", func(o *outer) { o.Name = "ab" }, "Name: minimum is 3"},
		{"oneof", func(o *outer) { o.Transport = "amqp" }, "Transport: must be one of [mqtt nats]"},
		{"min number", func(o *outer) { o.Speed = -1 }, "Speed: minimum is 0"},
		{"nested", func(o *outer) { o.Broker.Host = "" }, "Broker.Host: field is required"},
		{"nested max", func(o *outer) { o.Broker.Port = 70000 }, "Broker.Port: maximum is 65535"},
		{"dive", func(o *outer) { o.Items = append(o.Items, inner{Port: 1}) }, "Items[1].Host: field is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(&s)
			err := v.Validate(&s)
			require.Error(t, err)
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestValidate_NotStruct(t *testing.T) {
	v := NewValidator()
	assert.Error(t, v.Validate(42))

	var nilPtr *outer
	assert.Error(t, v.Validate(nilPtr))
}
