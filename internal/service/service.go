// Package service installs moodlog as a systemd user unit so the daemon keeps
// prompts flowing after login.
package service

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/chris/moodlog/config"
	"github.com/joho/godotenv"
)

const unitName = "moodlog.service"

func unitDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "systemd", "user")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "systemd", "user")
}

func unitPath() string {
	return filepath.Join(unitDir(), unitName)
}

// Install seeds ~/.moodlog/config from .env if needed, writes a unit that
// runs "moodlog serve" from the current executable and enables it.
func Install() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolving executable path: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return fmt.Errorf("resolving symlinks: %w", err)
	}

	configFile := config.ConfigFile()
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if envData, err := os.ReadFile(".env"); err == nil {
			if err := os.MkdirAll(config.ConfigDir(), 0700); err != nil {
				return fmt.Errorf("creating config dir: %w", err)
			}
			if err := os.WriteFile(configFile, envData, 0600); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}
			fmt.Printf("seeded config from .env -> %s\n", configFile)
		}
	}

	unit, err := renderUnit(exe, resolveWorkDir())
	if err != nil {
		return fmt.Errorf("generating unit: %w", err)
	}
	if err := os.MkdirAll(unitDir(), 0755); err != nil {
		return fmt.Errorf("creating unit dir: %w", err)
	}
	if err := os.WriteFile(unitPath(), []byte(unit), 0644); err != nil {
		return fmt.Errorf("writing unit: %w", err)
	}
	fmt.Printf("wrote unit to %s\n", unitPath())

	if err := systemctl("daemon-reload"); err != nil {
		return err
	}
	if err := systemctl("enable", "--now", unitName); err != nil {
		return err
	}
	fmt.Println("service enabled and started")
	return nil
}

// resolveWorkDir is the current directory when DATABASE_PATH in the home
// config is relative, ~/.moodlog otherwise.
func resolveWorkDir() string {
	envVars, _ := godotenv.Read(config.ConfigFile())
	if dbPath, ok := envVars["DATABASE_PATH"]; ok && !filepath.IsAbs(dbPath) {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
	}
	return config.ConfigDir()
}

// Uninstall disables the unit and removes it.
func Uninstall() error {
	if _, err := os.Stat(unitPath()); os.IsNotExist(err) {
		fmt.Println("unit not found, skipping")
		return nil
	}
	if err := systemctl("disable", "--now", unitName); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	if err := os.Remove(unitPath()); err != nil {
		return fmt.Errorf("removing unit: %w", err)
	}
	fmt.Printf("removed %s\n", unitPath())
	return systemctl("daemon-reload")
}

func Restart() error {
	return systemctl("restart", unitName)
}

func Status() error {
	cmd := exec.Command("systemctl", "--user", "status", "--no-pager", unitName)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Println("service is not running")
	}
	return nil
}

// Logs follows the unit's journal.
func Logs() error {
	cmd := exec.Command("journalctl", "--user", "-u", unitName, "-f")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func systemctl(args ...string) error {
	cmd := exec.Command("systemctl", append([]string{"--user"}, args...)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("systemctl %s: %s", strings.Join(args, " "), strings.TrimSpace(stderr.String()))
	}
	return nil
}

var unitTemplate = template.Must(template.New("unit").Parse(`[Unit]
Description=moodlog mood journal
After=network-online.target

[Service]
ExecStart={{.BinPath}} serve
WorkingDirectory={{.WorkDir}}
Restart=on-failure
RestartSec=5

[Install]
WantedBy=default.target
`))

type unitData struct {
	BinPath string
	WorkDir string
}

func renderUnit(binPath, workDir string) (string, error) {
	var buf bytes.Buffer
	if err := unitTemplate.Execute(&buf, unitData{BinPath: binPath, WorkDir: workDir}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
