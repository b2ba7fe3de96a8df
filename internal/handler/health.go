package handler // declare the package name; contains HTTP handlers

import (
    "context"
    "net/http" // net/http provides status codes and response helpers
    "sort"
    "time"

    "github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// HealthHandler reports liveness plus the state of optional dependencies.
// Required checks turn the response into 503 when they fail; optional ones
// (Redis, the broker) only show up as degraded.
type HealthHandler struct {
    Required map[string]HealthCheck
    Optional map[string]HealthCheck
}

// Health handles GET /healthz.
func (h *HealthHandler) Health(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
    defer cancel()

    status := http.StatusOK
    deps := map[string]string{}
    for _, name := range sortedKeys(h.Required) {
        if err := h.Required[name](ctx); err != nil {
            deps[name] = "down"
            status = http.StatusServiceUnavailable
            continue
        }
        deps[name] = "ok"
    }
    for _, name := range sortedKeys(h.Optional) {
        if err := h.Optional[name](ctx); err != nil {
            deps[name] = "degraded"
            continue
        }
        deps[name] = "ok"
    }

    state := "ok"
    if status != http.StatusOK {
        state = "unavailable"
    }
    return c.JSON(status, echo.Map{"status": state, "dependencies": deps})
}

func sortedKeys(m map[string]HealthCheck) []string {
    keys := make([]string, 0, len(m))
    for k := range m {
        keys = append(keys, k)
    }
    sort.Strings(keys)
    return keys
}
