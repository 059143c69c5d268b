package config

import "strings"

// envKeyReplacer maps nested keys to env names: database.max_conns -> DATABASE_MAX_CONNS.
var envKeyReplacer = strings.NewReplacer(".", "_")
