package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasAtLeastOnePermission(t *testing.T) {
	cases := []struct {
		name    string
		request UserRequest
		want    bool
	}{
		{
			name:    "empty tree",
			request: UserRequest{},
			want:    false,
		},
		{
			name: "nothing selected",
			request: UserRequest{Apps: []AppPermissionRequest{
				{ID: "app-1", Studies: []StudyPermissionRequest{
					{StudyID: "study-1", Sites: []SitePermissionRequest{{SiteID: "site-1"}}},
				}},
			}},
			want: false,
		},
		{
			name: "app selected",
			request: UserRequest{Apps: []AppPermissionRequest{
				{ID: "app-1", Selected: true},
			}},
			want: true,
		},
		{
			name: "only a study selected",
			request: UserRequest{Apps: []AppPermissionRequest{
				{ID: "app-1", Studies: []StudyPermissionRequest{
					{StudyID: "study-1", Selected: true},
				}},
			}},
			want: true,
		},
		{
			name: "only a deep site selected",
			request: UserRequest{Apps: []AppPermissionRequest{
				{ID: "app-1", Studies: []StudyPermissionRequest{
					{StudyID: "study-1", Sites: []SitePermissionRequest{
						{SiteID: "site-1"},
						{SiteID: "site-2", Selected: true},
					}},
				}},
			}},
			want: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.request.HasAtLeastOnePermission())
		})
	}
}
