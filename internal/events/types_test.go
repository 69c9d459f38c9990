package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailRequestEventJSON(t *testing.T) {
	event := NewEmailRequestEvent("register_new_admin", "nia@example.org", map[string]string{
		"FIRST_NAME": "Nia",
	})

	data, err := event.ToJSON()
	require.NoError(t, err)

	var decoded EmailRequestEvent
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, EmailRequested, decoded.Type)
	assert.Equal(t, "register_new_admin", decoded.Template)
	assert.Equal(t, "nia@example.org", decoded.Recipient)
	assert.Equal(t, "Nia", decoded.Args["FIRST_NAME"])
	assert.NotEmpty(t, decoded.ID)
	assert.Equal(t, "1.0", decoded.Version)
}

func TestAuditEventJSON(t *testing.T) {
	event := NewAuditEvent(AuditNewUserCreated, map[string]string{
		"new_user_id": "admin-1",
	})

	data, err := event.ToJSON()
	require.NoError(t, err)

	var decoded AuditEvent
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, AuditLogged, decoded.Type)
	assert.Equal(t, AuditNewUserCreated, decoded.EventName)
	assert.Equal(t, "admin-1", decoded.Fields["new_user_id"])
}
