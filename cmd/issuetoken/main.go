// Command issuetoken signs a development token with JWT_SECRET, standing in
// for the sign-in provider when running the portal locally.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/edushell/portal/internal/identity"
)

func main() {
	subject := flag.String("sub", "dev-user", "token subject")
	name := flag.String("name", "Developer", "display name")
	roles := flag.String("roles", "student", "comma-separated roles (student, teacher)")
	ttl := flag.Duration("ttl", 8*time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	var rs []identity.Role
	for _, r := range strings.Split(*roles, ",") {
		if r = strings.TrimSpace(r); r != "" {
			rs = append(rs, identity.Role(strings.ToLower(r)))
		}
	}

	token, err := identity.NewVerifier(secret).Issue(*subject, *name, rs, *ttl)
	if err != nil {
		log.Fatalf("sign token: %v", err)
	}
	fmt.Println(token)
}
