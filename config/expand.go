package config

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

var envRefPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvStrict expands `$VAR` and `${VAR}` references in s from the
// environment. A `${VAR}` whose variable is unset is an error rather
// than an empty string, so a missing credential fails at load time
// instead of producing a silently broken connection. `$$` emits a
// literal `$`.
func expandEnvStrict(s string) (string, error) {
	const dollar = "\x00AGENTKIT_DOLLAR\x00"
	s = strings.ReplaceAll(s, "$$", dollar)

	missing := make(map[string]struct{})
	for _, match := range envRefPattern.FindAllStringSubmatch(s, -1) {
		if _, ok := os.LookupEnv(match[1]); !ok {
			missing[match[1]] = struct{}{}
		}
	}
	if len(missing) > 0 {
		keys := make([]string, 0, len(missing))
		for k := range missing {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "", fmt.Errorf("config: missing environment variables: %s", strings.Join(keys, ", "))
	}

	s = os.ExpandEnv(s)
	return strings.ReplaceAll(s, dollar, "$"), nil
}

// expandSecrets expands environment references in the fields that
// commonly carry credentials or per-host values.
func (c *Config) expandSecrets() error {
	fields := []*string{
		&c.Cache.Redis.Addr,
		&c.Cache.Redis.Password,
	}
	for _, f := range fields {
		if !strings.Contains(*f, "$") {
			continue
		}
		expanded, err := expandEnvStrict(*f)
		if err != nil {
			return err
		}
		*f = expanded
	}
	return nil
}
