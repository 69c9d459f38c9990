package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPermissionFromValue(t *testing.T) {
	assert.Equal(t, NoPermission, PermissionFromValue(0))
	assert.Equal(t, View, PermissionFromValue(1))
	assert.Equal(t, Edit, PermissionFromValue(2))
	assert.Equal(t, NoPermission, PermissionFromValue(99))
}

func TestPermissionLabel(t *testing.T) {
	assert.Equal(t, "edit", Edit.Label())
	assert.Equal(t, "view", View.Label())
	assert.Equal(t, "view", NoPermission.Label())
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Active", StatusLabel(StatusActive))
	assert.Equal(t, "Invited", StatusLabel(StatusInvited))
	assert.Equal(t, "Deactivated", StatusLabel(StatusDeactivated))
}
