package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"

	"equiploan-backend/internal/inventory/employees"
	"equiploan-backend/internal/inventory/equipment"
	"equiploan-backend/internal/inventory/loans"
	"equiploan-backend/internal/inventory/receipts"
	"equiploan-backend/internal/platform/auth"
	"equiploan-backend/internal/platform/db"
)

func main() {
	cfg, err := db.LoadConfig("config/config.yaml")
	if err != nil {
		panic(err)
	}
	log.Printf("[INFO] mode:%s", cfg.Mode)

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		panic(err)
	}
	defer conn.Close()
	log.Printf("[INFO] connected to DB: %s", cfg.DB.DBName)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	_ = r.SetTrustedProxies(nil)

	if cfg.Mode == "dev" {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.HTTP.CORSOrigins,
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	authSvc := auth.NewService(conn, []byte(cfg.Auth.JWTSecret), time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
	auth.RegisterRoutes(r, authSvc, authSvc)

	api := r.Group("")
	if cfg.Auth.ProtectAPI {
		api.Use(auth.RequireAuth([]byte(cfg.Auth.JWTSecret)))
	}

	loanSvc := loans.NewService(conn)
	employees.RegisterRoutes(api, employees.NewService(conn))
	equipment.RegisterRoutes(api, equipment.NewService(conn))
	loans.RegisterRoutes(api, loanSvc)
	receipts.RegisterRoutes(api, loanSvc, receipts.NewGenerator(cfg.Organization.Name, cfg.Organization.Department))

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: r,
	}

	go func() {
		var err error
		if cfg.Certificate != nil {
			log.Printf("[INFO] listening on https://%s", cfg.HTTP.Addr)
			err = srv.ListenAndServeTLS(cfg.Certificate.Cert, cfg.Certificate.Key)
		} else {
			log.Printf("[INFO] listening on http://%s", cfg.HTTP.Addr)
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	log.Println("[INFO] shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err)
	}
}
