// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package capabilities

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/Thermoquad/loranger/pkg/dispatch"
	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

const encapLoopback = "loopback"

// links returns all non-loopback links
func (c *Catalog) links() ([]netlink.Link, error) {
	if c.nl == nil {
		return nil, errNoNetlink
	}
	all, err := c.nl.LinkList()
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}

	links := make([]netlink.Link, 0, len(all))
	for _, l := range all {
		if l.Attrs().EncapType == encapLoopback {
			continue
		}
		links = append(links, l)
	}
	return links, nil
}

func (c *Catalog) queryInterfaces(context.Context) (dispatch.Response, error) {
	links, err := c.links()
	if err != nil {
		return dispatch.Response{}, err
	}
	names := make([]string, 0, len(links))
	for _, l := range links {
		names = append(names, l.Attrs().Name)
	}
	return dispatch.List(names), nil
}

func (c *Catalog) queryIP4(context.Context) (dispatch.Response, error) {
	return c.addresses(netlink.FAMILY_V4)
}

func (c *Catalog) queryIP6(context.Context) (dispatch.Response, error) {
	return c.addresses(netlink.FAMILY_V6)
}

// addresses formats every link as name[addr/len,addr/len]
func (c *Catalog) addresses(family int) (dispatch.Response, error) {
	links, err := c.links()
	if err != nil {
		return dispatch.Response{}, err
	}

	var b strings.Builder
	for _, l := range links {
		addrs, err := c.nl.AddrList(l, family)
		if err != nil {
			return dispatch.Response{}, fmt.Errorf("failed to list addresses of %s: %w", l.Attrs().Name, err)
		}
		formatted := make([]string, 0, len(addrs))
		for _, a := range addrs {
			formatted = append(formatted, formatAddr(a))
		}
		fmt.Fprintf(&b, "%s[%s]", l.Attrs().Name, strings.Join(formatted, ","))
	}
	return dispatch.Text(b.String()), nil
}

func formatAddr(a netlink.Addr) string {
	if a.IPNet == nil {
		return ""
	}
	ones, _ := a.Mask.Size()
	return a.IP.String() + "/" + strconv.Itoa(ones)
}

// queryRoutes lists IPv4 unicast routes with a destination as ifname[dst/len]
func (c *Catalog) queryRoutes(context.Context) (dispatch.Response, error) {
	links, err := c.links()
	if err != nil {
		return dispatch.Response{}, err
	}
	names := make(map[int]string, len(links))
	for _, l := range links {
		names[l.Attrs().Index] = l.Attrs().Name
	}

	routes, err := c.nl.RouteList(nil, netlink.FAMILY_V4)
	if err != nil {
		return dispatch.Response{}, fmt.Errorf("failed to list routes: %w", err)
	}

	var out []string
	for _, r := range routes {
		if r.Type != unix.RTN_UNICAST || isDefaultRoute(r) {
			continue
		}
		name, ok := names[r.LinkIndex]
		if !ok {
			continue
		}
		out = append(out, name+"["+r.Dst.String()+"]")
	}
	return dispatch.List(out), nil
}

// isDefaultRoute reports whether r has no destination prefix. The kernel
// omits the destination of a default route and netlink reports it as 0/0.
func isDefaultRoute(r netlink.Route) bool {
	if r.Dst == nil {
		return true
	}
	ones, _ := r.Dst.Mask.Size()
	return ones == 0
}

func (c *Catalog) queryMACs(context.Context) (dispatch.Response, error) {
	links, err := c.links()
	if err != nil {
		return dispatch.Response{}, err
	}
	var b strings.Builder
	for _, l := range links {
		fmt.Fprintf(&b, "%s[%s]", l.Attrs().Name, l.Attrs().HardwareAddr)
	}
	return dispatch.Text(b.String()), nil
}

// lookupLink resolves the interface argument. A nil link means the reply is
// already decided by the returned response or error.
func (c *Catalog) lookupLink(args []string) (netlink.Link, dispatch.Response, error) {
	name, err := argument(args, 0, "interface")
	if err != nil {
		return nil, dispatch.Response{}, err
	}
	if c.nl == nil {
		return nil, dispatch.Response{}, errNoNetlink
	}
	link, err := c.nl.LinkByName(name)
	if errors.Is(err, ErrInterfaceNotFound) {
		return nil, dispatch.Text("Interface not found: " + name), nil
	}
	if err != nil {
		return nil, dispatch.Response{}, fmt.Errorf("failed to look up %s: %w", name, err)
	}
	return link, dispatch.Response{}, nil
}

func (c *Catalog) disableInterface(_ context.Context, args []string) (dispatch.Response, error) {
	link, resp, err := c.lookupLink(args)
	if link == nil {
		return resp, err
	}
	name := link.Attrs().Name
	if err := c.nl.LinkSetDown(link); err != nil {
		return dispatch.Text(fmt.Sprintf("Error disabling interface: %v", err)), nil
	}
	c.log.Info().Str("interface", name).Msg("interface disabled")
	return dispatch.Text("Disabled interface: " + name), nil
}

func (c *Catalog) enableInterface(_ context.Context, args []string) (dispatch.Response, error) {
	link, resp, err := c.lookupLink(args)
	if link == nil {
		return resp, err
	}
	name := link.Attrs().Name
	if err := c.nl.LinkSetUp(link); err != nil {
		return dispatch.Text(fmt.Sprintf("Error enabling interface: %v", err)), nil
	}
	c.log.Info().Str("interface", name).Msg("interface enabled")
	return dispatch.Text("Enabled interface: " + name), nil
}

// parseAddress parses addr/len. A missing length means a host address.
func parseAddress(s string) (*netlink.Addr, error) {
	host, prefix, hasPrefix := strings.Cut(s, "/")
	ip := net.ParseIP(host)
	if ip == nil {
		return nil, errors.New("Invalid address: " + s)
	}
	bits := net.IPv6len * 8
	if ip.To4() != nil {
		ip = ip.To4()
		bits = net.IPv4len * 8
	}

	ones := bits
	if hasPrefix {
		n, err := strconv.Atoi(prefix)
		if err != nil || n < 0 || n > bits {
			return nil, errors.New("Invalid prefix length: " + prefix)
		}
		ones = n
	}
	return &netlink.Addr{IPNet: &net.IPNet{IP: ip, Mask: net.CIDRMask(ones, bits)}}, nil
}

func (c *Catalog) addAddress(_ context.Context, args []string) (dispatch.Response, error) {
	address, err := argument(args, 1, "address")
	if err != nil {
		return dispatch.Response{}, err
	}
	addr, err := parseAddress(address)
	if err != nil {
		return dispatch.Text(err.Error()), nil
	}
	link, resp, err := c.lookupLink(args)
	if link == nil {
		return resp, err
	}

	name := link.Attrs().Name
	c.log.Debug().Str("interface", name).Str("address", formatAddr(*addr)).Msg("adding address")
	if err := c.nl.AddrAdd(link, addr); err != nil {
		return dispatch.Text(fmt.Sprintf("Error adding address: %v", err)), nil
	}
	return dispatch.Text(fmt.Sprintf("[%s] Added address: %s", name, address)), nil
}

func (c *Catalog) delAddress(_ context.Context, args []string) (dispatch.Response, error) {
	address, err := argument(args, 1, "address")
	if err != nil {
		return dispatch.Response{}, err
	}
	addr, err := parseAddress(address)
	if err != nil {
		return dispatch.Text(err.Error()), nil
	}
	link, resp, err := c.lookupLink(args)
	if link == nil {
		return resp, err
	}

	name := link.Attrs().Name
	c.log.Debug().Str("interface", name).Str("address", formatAddr(*addr)).Msg("deleting address")
	if err := c.nl.AddrDel(link, addr); err != nil {
		return dispatch.Text(fmt.Sprintf("Error removing address: %v", err)), nil
	}
	return dispatch.Text(fmt.Sprintf("[%s] Deleted address: %s", name, address)), nil
}
