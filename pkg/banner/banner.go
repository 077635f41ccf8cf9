// Package banner prints the startup banner.
package banner

import (
	"fmt"

	"github.com/TheGoodall/forum/pkg/config"
)

const banner = `
███████╗ ██████╗ ██████╗ ██╗   ██╗███╗   ███╗
██╔════╝██╔═══██╗██╔══██╗██║   ██║████╗ ████║
█████╗  ██║   ██║██████╔╝██║   ██║██╔████╔██║
██╔══╝  ██║   ██║██╔══██╗██║   ██║██║╚██╔╝██║
██║     ╚██████╔╝██║  ██║╚██████╔╝██║ ╚═╝ ██║
╚═╝      ╚═════╝ ╚═╝  ╚═╝ ╚═════╝ ╚═╝     ╚═╝
`

// Print writes the banner plus the effective runtime settings.
func Print(cfg *config.Config, version, source string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", cfg.Addr())
	fmt.Printf("DB Path:  %s\n", cfg.Server.DBPath)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	if source != "" {
		fmt.Printf("Config:   %s\n", source)
	}
	fmt.Printf("Sessions: expiry=%s\n", cfg.Session.Expiry.Duration())

	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("GET    /v1/board              - Root thread with top-level replies")
	fmt.Println("GET    /v1/posts/{path}       - One post with its direct replies")
	fmt.Println("PUT    /v1/posts/{path}       - Create a reply (form: content)")
	fmt.Println("DELETE /v1/posts/{path}       - Delete your own post")
	fmt.Println("POST   /v1/register /v1/login /v1/logout")

	fmt.Println("\n== Production? ================================================")
	if cfg.Server.TLS.CertFile != "" && cfg.Server.TLS.KeyFile != "" {
		fmt.Println("- TLS: configured")
	} else {
		fmt.Println("- TLS: unconfigured (session cookies will not be Secure)")
	}
	if cfg.Sweeper.Enabled {
		fmt.Printf("- Session sweeper: enabled (cron=%s)\n", cfg.Sweeper.Cron)
	} else {
		fmt.Println("- Session sweeper: disabled (expired sessions pruned lazily)")
	}

	fmt.Println("\n== Logs: ======================================================")
}
