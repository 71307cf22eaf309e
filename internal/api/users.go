package api

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/foodhub-client/internal/domain/listquery"
	"github.com/xenking/foodhub-client/internal/domain/user"
)

// ListUsers returns one page of accounts. Admin only.
func (c *Client) ListUsers(ctx context.Context, q listquery.Query) (listquery.Result[user.User], error) {
	return list[user.User](ctx, c, "/admin/users", ListParams(q), q)
}

// UpdateUserStatus activates or suspends an account. Admin only.
func (c *Client) UpdateUserStatus(ctx context.Context, id string, status user.Status) (*user.User, error) {
	if !status.Valid() {
		return nil, errors.Errorf("unknown user status %q", status)
	}
	return getOne[user.User](ctx, c, request{
		method: http.MethodPatch,
		path:   "/admin/users/" + escape(id) + "/status",
		body: func(e *jx.Encoder) {
			e.ObjStart()
			e.FieldStart("status")
			e.Str(string(status))
			e.ObjEnd()
		},
	})
}

// UpdateProfile edits the signed-in user's profile.
func (c *Client) UpdateProfile(ctx context.Context, f user.ProfileForm) (*user.User, error) {
	return getOne[user.User](ctx, c, request{
		method: http.MethodPatch,
		path:   "/users/profile",
		body: func(e *jx.Encoder) {
			e.ObjStart()
			e.FieldStart("name")
			e.Str(f.Name)
			writeOptionalStr(e, "image", f.Image)
			writeOptionalStr(e, "phone", f.Phone)
			writeOptionalStr(e, "address", f.Address)
			e.ObjEnd()
		},
	})
}
