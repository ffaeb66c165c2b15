package cmd

import (
	_ "github.com/LodestoneMC-org/backend/cmd/instance"
	_ "github.com/LodestoneMC-org/backend/cmd/root"
	_ "github.com/LodestoneMC-org/backend/cmd/server"
)
