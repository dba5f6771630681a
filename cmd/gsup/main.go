package main

import (
	"log"

	"github.com/emustore/gsup/cmd/gsup/cmd"
)

func main() {
	if err := cmd.NewRoot().Execute(); err != nil {
		log.Printf("exec cmd failed, err:%v", err)
	}
}
