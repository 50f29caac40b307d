// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "sao joao del rei", NormalizeText("São João-del-Rei"))
	assert.Equal(t, "bela vista", NormalizeText("  BELA   VISTA. "))
	assert.Empty(t, NormalizeText("--"))
}

func TestNormalizeState(t *testing.T) {
	assert.Equal(t, "sao paulo", NormalizeState("SP"))
	assert.Equal(t, "sao paulo", NormalizeState("São Paulo"))
	assert.Equal(t, "rio grande do sul", NormalizeState("rs"))
	assert.Equal(t, "buenos aires", NormalizeState("Buenos Aires"))
	assert.Empty(t, NormalizeState(""))
}

func TestHouseNumber(t *testing.T) {
	tests := []struct {
		address string
		want    string
	}{
		{"Rua Exemplo, 123, Fundos", "123"},
		{"Rua Exemplo, 123a", "123"},
		{"Av. Paulista 1000 - sala 5", "1000"},
		{"Rua das Palmeiras, S/N", ""},
		{"Rua Exemplo", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			assert.Equal(t, tt.want, HouseNumber(tt.address))
		})
	}
}
