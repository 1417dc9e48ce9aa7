package apidoc

import (
	"net/http"

	"github.com/tech-arch1tect/backoffice/middleware/gate"
	"github.com/tech-arch1tect/backoffice/services/account"
	"github.com/tech-arch1tect/backoffice/services/auth"
	"github.com/tech-arch1tect/backoffice/services/inventory"
)

const cookieAuth = "cookieAuth"

type signInBody struct {
	Username   string         `json:"username"`
	Password   string         `json:"password"`
	DeviceInfo map[string]any `json:"deviceInfo,omitempty"`
}

type userData struct {
	User        account.Profile `json:"user"`
	AccessToken string          `json:"accessToken,omitempty"`
}

type sessionsData struct {
	Sessions []account.DeviceSession `json:"sessions"`
}

type reasonData struct {
	Reason string `json:"reason"`
}

// Build describes the back office HTTP API.
func Build(title, version string) (*OpenAPI, error) {
	doc := New(title, version).
		Description("Back office API: cookie-based access/refresh token authentication and product inventory.").
		Tag("auth", "Sign-in, silent renewal, logout and device sessions").
		Tag("products", "Product inventory").
		Tag("dashboard", "Dashboard data").
		CookieAuth(cookieAuth, gate.AccessTokenCookie, "Short-lived access token set by /auth/signin")

	schemas := map[string]any{
		"SignInRequest":   signInBody{},
		"RegisterRequest": auth.RegisterInput{},
		"UserData":        userData{},
		"SessionsData":    sessionsData{},
		"Reason":          reasonData{},
		"ProductInput":    inventory.ProductInput{},
		"Product":         inventory.Product{},
		"ProductList":     []inventory.Product{},
	}
	for name, example := range schemas {
		if err := doc.AddSchema(name, example); err != nil {
			return nil, err
		}
	}

	doc.Route(http.MethodPost, "/auth/signin").
		Summary("Sign in with username or email").Tags("auth").
		JSONBody("SignInRequest").
		Response(http.StatusOK, "Signed in; accessToken and refreshToken cookies set", "UserData").
		Response(http.StatusBadRequest, "Missing username or password", "").
		Response(http.StatusUnauthorized, "Invalid credentials", "").
		Response(http.StatusTooManyRequests, "Too many failed attempts", "")

	doc.Route(http.MethodPost, "/auth/register").
		Summary("Create an account").Tags("auth").
		JSONBody("RegisterRequest").
		Response(http.StatusOK, "Account created", "UserData").
		Response(http.StatusBadRequest, "Missing field", "").
		Response(http.StatusConflict, "Username or email already exists", "")

	doc.Route(http.MethodPost, "/auth/authenticated").
		Summary("Check the session cookies, renewing tokens when the access token has expired").Tags("auth").
		Response(http.StatusOK, "Authenticated; renewed tokens are returned and set as cookies", "UserData").
		Response(http.StatusUnauthorized, "ACCESS_DENIED, INVALID_REFRESH_TOKEN, USER_NOT_FOUND or SESSION_REVOKED", "Reason").
		Response(http.StatusForbidden, "INVALID_ACCESS_TOKEN", "Reason")

	doc.Route(http.MethodPost, "/auth/logout").
		Summary("Revoke the current device session and clear cookies").Tags("auth").
		Response(http.StatusOK, "Signed out", "")

	doc.Route(http.MethodGet, "/auth/me").
		Summary("Current user without renewal; data.user is null when signed out").Tags("auth").
		Response(http.StatusOK, "Current user", "UserData")

	doc.Route(http.MethodGet, "/auth/sessions").
		Summary("List device sessions").Tags("auth").Security(cookieAuth).
		Response(http.StatusOK, "Device sessions", "SessionsData").
		Response(http.StatusUnauthorized, "Not signed in", "Reason")

	doc.Route(http.MethodDelete, "/auth/sessions/:id").
		Summary("Revoke a device session").Tags("auth").Security(cookieAuth).
		Response(http.StatusOK, "Session revoked", "").
		Response(http.StatusNotFound, "No such session", "")

	doc.Route(http.MethodGet, "/product/list").
		Summary("List products").Tags("products").Security(cookieAuth).
		Response(http.StatusOK, "Products", "ProductList").
		Response(http.StatusUnauthorized, "Not signed in", "Reason")

	doc.Route(http.MethodPost, "/product").
		Summary("Add a product").Tags("products").Security(cookieAuth).
		JSONBody("ProductInput").
		Response(http.StatusOK, "Product added", "Product").
		Response(http.StatusBadRequest, "Name and sku are required", "").
		Response(http.StatusConflict, "Duplicate sku", "")

	doc.Route(http.MethodDelete, "/product/:id").
		Summary("Delete a product").Tags("products").Security(cookieAuth).
		Response(http.StatusOK, "Product deleted", "").
		Response(http.StatusNotFound, "No such product", "")

	doc.Route(http.MethodGet, "/api/dashboard/data").
		Summary("Dashboard data for the signed-in user").Tags("dashboard").Security(cookieAuth).
		Response(http.StatusOK, "Dashboard data", "").
		Response(http.StatusUnauthorized, "Not signed in", "Reason")

	return doc, nil
}
