package main

import "storefront/cli"

func main() {
	cli.Execute()
}
