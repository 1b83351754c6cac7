package config

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	reExport = regexp.MustCompile(`^\s*export\s+([A-Za-z_][A-Za-z0-9_]*)\s*=\s*(.*)\s*$`)
	reAssign = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*=\s*(.*)\s*$`)
)

// LoadEnv loads shell-style env files into the process environment.
// Variables already set are left alone. Supported lines:
//
//	export KEY=value
//	KEY=value
//
// Values may be unquoted, single-quoted (literal) or double-quoted with
// \\ and \" escapes.
func LoadEnv(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		loadEnvFile(p)
	}
}

func loadEnvFile(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	scan := bufio.NewScanner(f)
	for scan.Scan() {
		key, val, ok := parseEnvLine(scan.Text())
		if !ok {
			continue
		}
		if _, set := os.LookupEnv(key); set {
			continue
		}
		os.Setenv(key, val)
	}
}

func parseEnvLine(line string) (string, string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	var key, val string
	if m := reExport.FindStringSubmatch(line); m != nil {
		key, val = m[1], m[2]
	} else if m := reAssign.FindStringSubmatch(line); m != nil {
		key, val = m[1], m[2]
	} else {
		return "", "", false
	}
	val = strings.TrimSpace(val)
	switch {
	case len(val) >= 2 && strings.HasPrefix(val, `"`) && strings.HasSuffix(val, `"`):
		val = val[1 : len(val)-1]
		val = strings.ReplaceAll(val, `\\`, `\`)
		val = strings.ReplaceAll(val, `\"`, `"`)
	case len(val) >= 2 && strings.HasPrefix(val, "'") && strings.HasSuffix(val, "'"):
		val = val[1 : len(val)-1]
	}
	return key, val, true
}

// LoadDefaultEnv loads env from SADOO_ENV, ~/.sadoo.env and ./.env, in that
// order, when present.
func LoadDefaultEnv() {
	if p := strings.TrimSpace(os.Getenv(EnvPrefix + "ENV")); p != "" {
		LoadEnv(p)
	}
	if home, err := os.UserHomeDir(); err == nil {
		LoadEnv(filepath.Join(home, ".sadoo.env"))
	}
	LoadEnv(".env")
}
