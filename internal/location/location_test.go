// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package location

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		raw    string
		wantID string
		wantS  string
	}{
		{"", "", "/chat"},
		{"/chat?conversation_id=42", "42", "/chat?conversation_id=42"},
		{"?conversation_id=7", "7", "/chat?conversation_id=7"},
		{"conversation_id=9", "9", "/chat?conversation_id=9"},
		{"http://localhost:3000/chat?conversation_id=5&x=1", "5", "http://localhost:3000/chat?conversation_id=5&x=1"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			loc, err := Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, loc.ConversationID())
			assert.Equal(t, tt.wantS, loc.String())
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse("http://[::1")
	assert.Error(t, err)
}

func TestSetAndClearConversationID(t *testing.T) {
	loc := New()

	loc.SetConversationID("7")
	assert.Equal(t, "7", loc.ConversationID())
	assert.Equal(t, "/chat?conversation_id=7", loc.String())

	// same value does not push another entry
	loc.SetConversationID("7")
	assert.Equal(t, []string{"/chat"}, loc.History())

	loc.ClearConversationID()
	assert.Equal(t, "", loc.ConversationID())
	assert.Equal(t, "/chat", loc.String())
	assert.Equal(t, []string{"/chat", "/chat?conversation_id=7"}, loc.History())

	// clearing again is a no-op
	loc.ClearConversationID()
	assert.Len(t, loc.History(), 2)
}

func TestSetParam_KeepsOtherParams(t *testing.T) {
	loc, err := Parse("/chat?theme=dark")
	require.NoError(t, err)

	loc.SetConversationID("3")
	assert.Equal(t, "dark", loc.Param("theme"))
	assert.Equal(t, "3", loc.ConversationID())
}

func TestHistory_Bounded(t *testing.T) {
	loc := New()
	for i := 0; i < maxHistory+20; i++ {
		loc.SetParam("n", string(rune('a'+i%26))+string(rune('a'+i/26)))
	}
	assert.Len(t, loc.History(), maxHistory)
}
