// cmd/seedadmin/main.go — creates or updates the bootstrap admin credential
// in the local store. Usage: go run cmd/seedadmin/main.go [phone] [pin]
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/shoyaib4265a/st-shop-poss/internal/config"
	"github.com/shoyaib4265a/st-shop-poss/internal/model"
	"github.com/shoyaib4265a/st-shop-poss/internal/store"
	"github.com/shoyaib4265a/st-shop-poss/internal/trust"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	phone := cfg.BootstrapAdminPhone
	pin := cfg.BootstrapAdminPIN
	if len(os.Args) > 1 {
		phone = os.Args[1]
	}
	if len(os.Args) > 2 {
		pin = os.Args[2]
	}

	st, err := store.OpenSQLite(cfg.DataPath, store.Seed{
		AdminPhone: phone,
		AdminPIN:   pin,
		BcryptCost: cfg.PINBcryptCost,
	})
	if err != nil {
		log.Fatalf("store open error: %v", err)
	}
	defer st.Close()

	mgr := trust.NewManager(st, cfg, nil)
	if err := mgr.SaveCredential(context.Background(), phone, pin, model.RoleAdmin); err != nil {
		log.Fatalf("seed error: %v", err)
	}
	fmt.Printf("admin '%s' created/updated with pin '%s'\n", phone, pin)
}
