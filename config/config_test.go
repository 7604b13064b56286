package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDimensions_UnmarshalText(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Dimensions
		wantErr bool
	}{
		{
			name:  "default set",
			input: "400x300,160x120,120x120",
			want: Dimensions{
				{Width: 400, Height: 300},
				{Width: 160, Height: 120},
				{Width: 120, Height: 120},
			},
		},
		{
			name:  "single dimension with spaces",
			input: " 640x480 ",
			want:  Dimensions{{Width: 640, Height: 480}},
		},
		{
			name:    "missing separator",
			input:   "400300",
			wantErr: true,
		},
		{
			name:    "non numeric width",
			input:   "axb",
			wantErr: true,
		},
		{
			name:    "zero height",
			input:   "400x0",
			wantErr: true,
		},
		{
			name:    "negative width",
			input:   "-400x300",
			wantErr: true,
		},
		{
			name:    "duplicate dimension",
			input:   "400x300,400x300",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Dimensions
			err := d.UnmarshalText([]byte(tt.input))

			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, d)
		})
	}
}
