// Command devtoken emite un JWT firmado con JWT_SECRET para probar la API en local.
//
//	go run ./cmd/devtoken -user 00000000-0000-0000-0000-000000000001 -role bodeguero
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jhoicas/Inventario-stock/pkg/config"
	"github.com/jhoicas/Inventario-stock/pkg/jwt"
)

func main() {
	userID := flag.String("user", "", "user_id del token")
	role := flag.String("role", jwt.RoleAdmin, "rol: admin, bodeguero o vendedor")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if cfg.JWT.Secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET vacío")
		os.Exit(1)
	}
	if *userID == "" {
		fmt.Fprintln(os.Stderr, "-user es obligatorio")
		os.Exit(2)
	}
	tok, err := jwt.Generate(cfg.JWT.Secret, *userID, *role, cfg.JWT.Issuer, cfg.JWT.Expiration)
	if err != nil {
		fmt.Fprintln(os.Stderr, "jwt:", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
