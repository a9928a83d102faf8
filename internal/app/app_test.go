package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"MicroShop/internal/app"
	"MicroShop/internal/auth"
	"MicroShop/internal/catalog"
	"MicroShop/internal/kv"
	"MicroShop/internal/orders"
)

type testEnv struct {
	app      *app.App
	ts       *httptest.Server
	users    *auth.MemStore
	products *catalog.MemStore
	orders   *orders.MemStore
	kv       *kv.Memory
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		users:    auth.NewMemStore(),
		products: catalog.NewMemStore(),
		orders:   orders.NewMemStore(),
		kv:       kv.NewMemory(),
	}

	env.app = app.New(app.Deps{
		Log:      zap.NewNop(),
		Service:  "shop-api",
		Users:    env.users,
		Products: env.products,
		Orders:   env.orders,
		KV:       env.kv,
	})

	env.ts = httptest.NewServer(env.app.Handler)
	t.Cleanup(env.ts.Close)
	return env
}

func doJSON(t *testing.T, method, url, token string, body any, out any, wantStatus int) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: status %d, want %d (body %s)", method, url, resp.StatusCode, wantStatus, raw)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			t.Fatalf("unmarshal %q: %v", raw, err)
		}
	}
}

func login(t *testing.T, env *testEnv, username, password string) string {
	t.Helper()

	var resp struct {
		Token string `json:"token"`
		Role  string `json:"role"`
	}
	doJSON(t, http.MethodPost, env.ts.URL+"/login", "", map[string]any{
		"username": username,
		"password": password,
	}, &resp, http.StatusOK)

	if resp.Token == "" {
		t.Fatal("empty token")
	}
	return resp.Token
}

func seedAdmin(t *testing.T, env *testEnv) string {
	t.Helper()
	if _, err := env.users.Create(context.Background(), "admin", "adminpass", auth.RoleAdmin); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	return login(t, env, "admin", "adminpass")
}

func seedProducts(t *testing.T, env *testEnv, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := env.products.Create(context.Background(), "Product", 10.0, 100); err != nil {
			t.Fatalf("seed product: %v", err)
		}
	}
}

func TestUserOrderFlow(t *testing.T) {
	env := newTestEnv(t)
	seedProducts(t, env, 9)

	doJSON(t, http.MethodPost, env.ts.URL+"/register", "", map[string]any{
		"username": "alice",
		"password": "secret",
	}, nil, http.StatusCreated)

	token := login(t, env, "alice", "secret")

	doJSON(t, http.MethodPost, env.ts.URL+"/cart/add", token, map[string]any{
		"product_id": 7, "quantity": 2,
	}, nil, http.StatusOK)
	doJSON(t, http.MethodPost, env.ts.URL+"/cart/add", token, map[string]any{
		"product_id": 9, "quantity": 1,
	}, nil, http.StatusOK)

	var cartResp struct {
		Cart map[string]int `json:"cart"`
	}
	doJSON(t, http.MethodGet, env.ts.URL+"/cart", token, nil, &cartResp, http.StatusOK)
	if cartResp.Cart["7"] != 2 || cartResp.Cart["9"] != 1 {
		t.Fatalf("cart: %v", cartResp.Cart)
	}

	var orderResp struct {
		OrderID int64 `json:"order_id"`
	}
	doJSON(t, http.MethodPost, env.ts.URL+"/order", token, nil, &orderResp, http.StatusCreated)
	if orderResp.OrderID == 0 {
		t.Fatal("missing order_id")
	}

	cartResp.Cart = nil // json.Unmarshal merges into a non-nil map; reset so the empty cart is visible
	doJSON(t, http.MethodGet, env.ts.URL+"/cart", token, nil, &cartResp, http.StatusOK)
	if len(cartResp.Cart) != 0 {
		t.Fatalf("cart not cleared: %v", cartResp.Cart)
	}

	items, err := env.orders.Items(context.Background(), orderResp.OrderID)
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("item count = %d, want 2", len(items))
	}

	var notifResp struct {
		Notifications []struct {
			OrderID   int64  `json:"order_id"`
			Status    string `json:"status"`
			Timestamp int64  `json:"timestamp"`
			Message   string `json:"message"`
		} `json:"notifications"`
	}
	doJSON(t, http.MethodGet, env.ts.URL+"/notifications", token, nil, &notifResp, http.StatusOK)
	if len(notifResp.Notifications) != 1 {
		t.Fatalf("notifications: %+v", notifResp.Notifications)
	}
	head := notifResp.Notifications[0]
	if head.OrderID != orderResp.OrderID || head.Status != "Pending" || head.Timestamp == 0 {
		t.Fatalf("head notification: %+v", head)
	}
}

func TestOrderOnEmptyCart(t *testing.T) {
	env := newTestEnv(t)

	doJSON(t, http.MethodPost, env.ts.URL+"/register", "", map[string]any{
		"username": "bob", "password": "secret",
	}, nil, http.StatusCreated)
	token := login(t, env, "bob", "secret")

	var errResp struct {
		Error string `json:"error"`
	}
	doJSON(t, http.MethodPost, env.ts.URL+"/order", token, nil, &errResp, http.StatusBadRequest)
	if errResp.Error != "Cart is empty" {
		t.Fatalf("error = %q", errResp.Error)
	}
}

func TestAdminStatusUpdateNotifiesOwner(t *testing.T) {
	env := newTestEnv(t)
	seedProducts(t, env, 1)
	adminToken := seedAdmin(t, env)

	doJSON(t, http.MethodPost, env.ts.URL+"/register", "", map[string]any{
		"username": "carol", "password": "secret",
	}, nil, http.StatusCreated)
	userToken := login(t, env, "carol", "secret")

	doJSON(t, http.MethodPost, env.ts.URL+"/cart/add", userToken, map[string]any{
		"product_id": 1,
	}, nil, http.StatusOK)

	var orderResp struct {
		OrderID int64 `json:"order_id"`
	}
	doJSON(t, http.MethodPost, env.ts.URL+"/order", userToken, nil, &orderResp, http.StatusCreated)

	// Watch the global channel while the admin flips the status.
	globalSub := env.kv.Subscribe(context.Background(), kv.ChanOrders)
	defer globalSub.Close()

	doJSON(t, http.MethodPut, env.ts.URL+"/order/1/status", adminToken, map[string]any{
		"status": "Shipped",
	}, nil, http.StatusOK)

	o, found, _ := env.orders.Get(context.Background(), orderResp.OrderID)
	if !found || o.Status != "Shipped" {
		t.Fatalf("order after update: %+v", o)
	}

	var notifResp struct {
		Notifications []struct {
			Status string `json:"status"`
		} `json:"notifications"`
	}
	doJSON(t, http.MethodGet, env.ts.URL+"/notifications", userToken, nil, &notifResp, http.StatusOK)
	if len(notifResp.Notifications) != 2 || notifResp.Notifications[0].Status != "Shipped" {
		t.Fatalf("owner notifications: %+v", notifResp.Notifications)
	}

	select {
	case msg := <-globalSub.Events():
		if !bytes.Contains(msg.Payload, []byte(`"Shipped"`)) {
			t.Fatalf("global event: %s", msg.Payload)
		}
	default:
		t.Fatal("no event on global orders channel")
	}
}

func TestAdminRoutesRejectUsers(t *testing.T) {
	env := newTestEnv(t)

	doJSON(t, http.MethodPost, env.ts.URL+"/register", "", map[string]any{
		"username": "dave", "password": "secret",
	}, nil, http.StatusCreated)
	token := login(t, env, "dave", "secret")

	doJSON(t, http.MethodPost, env.ts.URL+"/products", token, map[string]any{
		"name": "X", "price": 1.0, "stock": 1,
	}, nil, http.StatusUnauthorized)
	doJSON(t, http.MethodPut, env.ts.URL+"/order/1/status", token, map[string]any{
		"status": "Shipped",
	}, nil, http.StatusUnauthorized)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	doJSON(t, http.MethodGet, env.ts.URL+"/cart", "", nil, nil, http.StatusUnauthorized)
	doJSON(t, http.MethodPost, env.ts.URL+"/order", "", nil, nil, http.StatusUnauthorized)
	doJSON(t, http.MethodGet, env.ts.URL+"/notifications", "bogus-token", nil, nil, http.StatusUnauthorized)
}

func TestAdminProductCRUDInvalidatesCache(t *testing.T) {
	env := newTestEnv(t)
	adminToken := seedAdmin(t, env)

	var products []catalog.Product
	doJSON(t, http.MethodGet, env.ts.URL+"/products", "", nil, &products, http.StatusOK)
	if len(products) != 0 {
		t.Fatalf("expected empty catalog, got %v", products)
	}

	var created struct {
		ID int64 `json:"id"`
	}
	doJSON(t, http.MethodPost, env.ts.URL+"/products", adminToken, map[string]any{
		"name": "Laptop", "price": 999.99, "stock": 10,
	}, &created, http.StatusCreated)

	// The list was cached empty; create must have invalidated it.
	doJSON(t, http.MethodGet, env.ts.URL+"/products", "", nil, &products, http.StatusOK)
	if len(products) != 1 || products[0].Name != "Laptop" {
		t.Fatalf("catalog after create: %v", products)
	}

	doJSON(t, http.MethodPut, env.ts.URL+"/products/1", adminToken, map[string]any{
		"price": 899.99,
	}, nil, http.StatusOK)

	var p catalog.Product
	doJSON(t, http.MethodGet, env.ts.URL+"/products/1", "", nil, &p, http.StatusOK)
	if p.Price != 899.99 || p.Name != "Laptop" {
		t.Fatalf("product after partial update: %+v", p)
	}

	doJSON(t, http.MethodDelete, env.ts.URL+"/products/1", adminToken, nil, nil, http.StatusOK)
	doJSON(t, http.MethodGet, env.ts.URL+"/products/1", "", nil, nil, http.StatusNotFound)
}

func TestStreamEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.app.Pipeline.StreamBudget = 300 * time.Millisecond

	doJSON(t, http.MethodPost, env.ts.URL+"/register", "", map[string]any{
		"username": "eve", "password": "secret",
	}, nil, http.StatusCreated)
	token := login(t, env, "eve", "secret")

	req, err := http.NewRequest(http.MethodGet, env.ts.URL+"/notifications/stream", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read stream: %v", err)
	}

	lines := bytes.Split(bytes.TrimRight(body, "\n"), []byte("\n"))
	if len(lines) < 2 {
		t.Fatalf("stream lines: %q", body)
	}

	var first, last struct {
		Event string `json:"event"`
	}
	if err := json.Unmarshal(lines[0], &first); err != nil || first.Event != "subscribed" {
		t.Fatalf("first line %q: %v", lines[0], err)
	}
	if err := json.Unmarshal(lines[len(lines)-1], &last); err != nil || last.Event != "timeout" {
		t.Fatalf("last line %q: %v", lines[len(lines)-1], err)
	}
}
