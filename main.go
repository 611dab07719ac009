package main

import (
	"github.com/yumyai/hgtmatch/cmd"
)

func main() {
	cmd.Execute()
}
