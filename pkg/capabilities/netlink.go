// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package capabilities

import (
	"errors"
	"fmt"

	"github.com/vishvananda/netlink"
)

// ErrInterfaceNotFound is returned by Netlink.LinkByName for unknown names
var ErrInterfaceNotFound = errors.New("interface not found")

// Netlink is the subset of *netlink.Handle the catalog uses
type Netlink interface {
	LinkList() ([]netlink.Link, error)
	LinkByName(name string) (netlink.Link, error)
	LinkSetUp(link netlink.Link) error
	LinkSetDown(link netlink.Link) error
	AddrList(link netlink.Link, family int) ([]netlink.Addr, error)
	AddrAdd(link netlink.Link, addr *netlink.Addr) error
	AddrDel(link netlink.Link, addr *netlink.Addr) error
	RouteList(link netlink.Link, family int) ([]netlink.Route, error)
}

type handle struct {
	*netlink.Handle
}

func (h handle) LinkByName(name string) (netlink.Link, error) {
	link, err := h.Handle.LinkByName(name)
	var notFound netlink.LinkNotFoundError
	if errors.As(err, &notFound) {
		return nil, fmt.Errorf("%w: %s", ErrInterfaceNotFound, name)
	}
	return link, err
}

// OpenNetlink opens a netlink socket in the current network namespace.
// The returned func closes it.
func OpenNetlink() (Netlink, func(), error) {
	h, err := netlink.NewHandle()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open netlink handle: %w", err)
	}
	return handle{h}, h.Close, nil
}
