// Command devtoken prints an access token for local development.  It signs
// with JWT_SECRET exactly as the auth service does, so the token is accepted
// by a server sharing that secret.
//
//	devtoken -id 1 -role provider -name "Ali" -ttl 2h
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/iliyamo/service-booking/internal/model"
	"github.com/iliyamo/service-booking/internal/utils"
)

func main() {
	id := flag.Uint64("id", 0, "identity id (for providers, the provider id)")
	role := flag.String("role", "customer", "customer, provider or admin")
	name := flag.String("name", "", "display name")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fail("JWT_SECRET is not set")
	}
	r, ok := model.ParseRole(*role)
	if !ok {
		fail("unknown role %q", *role)
	}
	if *id == 0 {
		fail("-id is required")
	}

	tok, err := utils.NewAccessToken(secret, model.Identity{ID: *id, Role: r, Name: *name}, *ttl)
	if err != nil {
		fail("sign token: %v", err)
	}
	fmt.Println(tok.Token)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "devtoken: "+format+"\n", args...)
	os.Exit(2)
}
