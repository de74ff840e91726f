package main

import "github.com/sungur/revbox/internal/boot"

func main() {
	boot.Run()
}
