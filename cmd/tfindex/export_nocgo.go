//go:build !cgo

package main

import "errors"

func (a *app) runExport(_ []string) error {
	return errors.New("export needs the Kuzu driver, which requires a cgo build")
}
