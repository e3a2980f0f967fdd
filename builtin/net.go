package builtin

import (
	"math/big"
	"net"

	"github.com/wippyai/policyvm/errs"
	"github.com/wippyai/policyvm/value"
)

func init() {
	register2("net.cidr_contains", builtinNetCIDRContains)
	register2("net.cidr_intersects", builtinNetCIDRIntersects)
	register1("net.cidr_expand", builtinNetCIDRExpand)
}

func cidrOperand(v value.Value) (*net.IPNet, error) {
	s, ok := v.(value.String)
	if !ok {
		return nil, errs.InvalidType("string", v.Kind().String())
	}
	_, ipnet, err := net.ParseCIDR(string(s))
	if err != nil {
		return nil, errs.InvalidIPNetwork(err)
	}
	return ipnet, nil
}

// lastIP computes the final address in cidr, using big.Int arithmetic
// so the same code handles IPv4 and IPv6.
func lastIP(cidr *net.IPNet) net.IP {
	prefixLen, bits := cidr.Mask.Size()
	if prefixLen == bits {
		return cidr.IP
	}
	first := new(big.Int).SetBytes(cidr.IP)
	hostLen := uint(bits) - uint(prefixLen)
	span := new(big.Int).Lsh(big.NewInt(1), hostLen)
	span.Sub(span, big.NewInt(1))
	span.Or(span, first)

	out := make([]byte, bits/8)
	raw := span.Bytes()
	for i := 1; i <= len(raw); i++ {
		out[len(out)-i] = raw[len(raw)-i]
	}
	return out
}

func builtinNetCIDRIntersects(a, b value.Value) (value.Value, error) {
	netA, err := cidrOperand(a)
	if err != nil {
		return nil, err
	}
	netB, err := cidrOperand(b)
	if err != nil {
		return nil, err
	}
	return value.Bool(netA.Contains(netB.IP) || netB.Contains(netA.IP)), nil
}

// builtinNetCIDRContains reports whether a contains b, where b may be a
// bare IP address or another CIDR.
func builtinNetCIDRContains(a, b value.Value) (value.Value, error) {
	netA, err := cidrOperand(a)
	if err != nil {
		return nil, err
	}
	bs, ok := b.(value.String)
	if !ok {
		return nil, errs.InvalidType("string", b.Kind().String())
	}
	if ip := net.ParseIP(string(bs)); ip != nil {
		return value.Bool(netA.Contains(ip)), nil
	}
	netB, err := cidrOperand(b)
	if err != nil {
		return nil, err
	}
	if !netA.Contains(netB.IP) {
		return value.Bool(false), nil
	}
	return value.Bool(netA.Contains(lastIP(netB))), nil
}

func builtinNetCIDRExpand(a value.Value) (value.Value, error) {
	s, ok := a.(value.String)
	if !ok {
		return nil, errs.InvalidType("string", a.Kind().String())
	}
	ip, ipnet, err := net.ParseCIDR(string(s))
	if err != nil {
		return nil, errs.InvalidIPNetwork(err)
	}
	out := value.NewSet()
	for cur := ip.Mask(ipnet.Mask); ipnet.Contains(cur); incIP(cur) {
		out.Add(value.String(cur.String()))
	}
	return out, nil
}

func incIP(ip net.IP) {
	for j := len(ip) - 1; j >= 0; j-- {
		ip[j]++
		if ip[j] > 0 {
			break
		}
	}
}
