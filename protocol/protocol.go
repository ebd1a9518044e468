// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package protocol

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sage-x-project/dht/certstore"
	"github.com/sage-x-project/dht/identity"
	"github.com/sage-x-project/dht/internal/metrics"
	"github.com/sage-x-project/dht/kadid"
	"github.com/sage-x-project/dht/routing"
	"github.com/sage-x-project/dht/storage"
	"github.com/sage-x-project/dht/transport"
)

// CertFetcher resolves an unknown node's certificate through the DHT
// (spec section 4.9, "cert lookup recursion"). It is implemented by
// the crawl package and wired in after construction to avoid an
// import cycle (the crawler itself issues Protocol calls).
type CertFetcher interface {
	FetchCert(ctx context.Context, id kadid.ID) bool
}

// Protocol implements component 7, the Signed-RPC Protocol.
type Protocol struct {
	local kadid.Node
	id    *identity.Adapter
	certs *certstore.Store
	store *storage.Forgetful
	rt    *routing.Table
	tr    transport.Transport

	mu           sync.Mutex
	inFlightCert map[kadid.ID]bool

	certFetcher CertFetcher
	onNewNode   func(n kadid.Node)
}

// New builds a Protocol for the local node.
func New(local kadid.Node, id *identity.Adapter, certs *certstore.Store, store *storage.Forgetful, rt *routing.Table, tr transport.Transport) *Protocol {
	return &Protocol{
		local:        local,
		id:           id,
		certs:        certs,
		store:        store,
		rt:           rt,
		tr:           tr,
		inFlightCert: make(map[kadid.ID]bool),
	}
}

// SetCertFetcher wires in the crawler used to resolve unknown peers'
// certificates.
func (p *Protocol) SetCertFetcher(f CertFetcher) { p.certFetcher = f }

// SetOnNewNode installs the key-handoff hook of spec section 4.6,
// invoked whenever a previously-unseen node is added to the routing
// table.
func (p *Protocol) SetOnNewNode(f func(n kadid.Node)) { p.onNewNode = f }

// pinger bridges routing.Table's bucket-eviction probe to a real
// ping call, blocking the caller (the single event-loop goroutine)
// until the probe resolves (spec section 5).
func (p *Protocol) pinger(n kadid.Node) bool {
	outcome, _, err := p.CallPing(context.Background(), n, false)
	return err == nil && outcome == OutcomeOK
}

// ensureCert blocks until target's certificate is available, issuing
// at most one concurrent fetch per id (design note: guard lookup
// storms with a per-id in-flight set).
func (p *Protocol) ensureCert(ctx context.Context, target kadid.ID) ([]byte, bool) {
	if der, ok := p.certs.Get(target.Hex()); ok {
		return der, true
	}
	if p.certFetcher == nil {
		return nil, false
	}

	p.mu.Lock()
	if p.inFlightCert[target] {
		p.mu.Unlock()
		return nil, false
	}
	p.inFlightCert[target] = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.inFlightCert, target)
		p.mu.Unlock()
	}()

	if !p.certFetcher.FetchCert(ctx, target) {
		return nil, false
	}
	return p.certs.Get(target.Hex())
}

// verbLabel names a request Kind for metrics, matching the six
// signed verbs of spec section 4.
func verbLabel(kind transport.Kind) string {
	switch kind {
	case transport.KindPingReq:
		return "ping"
	case transport.KindFindNodeReq:
		return "find_node"
	case transport.KindFindValueReq:
		return "find_value"
	case transport.KindStoreReq:
		return "store"
	case transport.KindAppendReq:
		return "append"
	case transport.KindRemoveReq:
		return "remove"
	default:
		return "unknown"
	}
}

// sendSigned is the common caller-side request/verify flow shared by
// all six verbs.
func (p *Protocol) sendSigned(ctx context.Context, target kadid.Node, kind transport.Kind, args [][]byte, explicitCert []byte) (rp responsePayload, outcome Outcome, err error) {
	verb := verbLabel(kind)
	start := time.Now()
	defer func() {
		metrics.RPCCallsTotal.WithLabelValues(verb, outcome.String()).Inc()
		metrics.RPCCallDuration.WithLabelValues(verb).Observe(time.Since(start).Seconds())
	}()

	challenge, err := NewChallenge()
	if err != nil {
		return responsePayload{}, OutcomeTimeout, fmt.Errorf("protocol: generate challenge: %w", err)
	}

	signedPayload := []byte(target.ID.Hex() + challenge.Hex())
	sig, err := p.id.Sign(signedPayload)
	if err != nil {
		// "A failed sign aborts the RPC by returning 'no response'"
		// (spec section 4.1).
		return responsePayload{}, OutcomeTimeout, nil
	}

	msgID, err := transport.NewMsgID()
	if err != nil {
		return responsePayload{}, OutcomeTimeout, fmt.Errorf("protocol: generate msgId: %w", err)
	}

	req := requestPayload{
		SenderAddr:   p.local.Addr(),
		SenderID:     p.local.ID,
		Args:         args,
		Challenge:    challenge.Hex(),
		Signature:    sig,
		ExplicitCert: explicitCert,
	}
	msg := transport.Message{ID: msgID, Kind: kind, Payload: encodeRequest(req)}

	resp, err := p.tr.Send(ctx, target.Addr(), msg)
	if err != nil {
		p.rt.RemoveContact(target.ID)
		return responsePayload{}, OutcomeTimeout, nil
	}

	rp, err = decodeResponse(resp.Payload)
	if err != nil {
		return responsePayload{}, OutcomeBadSignature, nil
	}

	if rp.NACK {
		p.handleNACK(ctx, target, challenge, rp.Signature)
		return rp, OutcomeNACK, nil
	}

	targetDER, ok := p.ensureCert(ctx, target.ID)
	if !ok {
		return responsePayload{}, OutcomeBadSignature, nil
	}
	targetCert, err := x509.ParseCertificate(targetDER)
	if err != nil {
		return responsePayload{}, OutcomeBadSignature, nil
	}
	if err := p.id.Verify(targetCert, rp.Signature, []byte(challenge.Hex())); err != nil {
		return responsePayload{}, OutcomeBadSignature, nil
	}

	p.promote(target)
	return rp, OutcomeOK, nil
}

// handleNACK implements the caller-side NACK rescue flow (spec
// section 4.3): verify the NACK signature against the stored cert if
// we have one, then introduce ourselves via a privileged ping.
func (p *Protocol) handleNACK(ctx context.Context, target kadid.Node, challenge Challenge, sig []byte) {
	if der, ok := p.certs.Get(target.ID.Hex()); ok {
		if cert, err := x509.ParseCertificate(der); err == nil {
			_ = p.id.Verify(cert, sig, []byte(challenge.Hex()))
		}
	}
	_, _, _ = p.CallPing(ctx, target, true)
}

// promote runs the isNewNode check and addContact together so the
// key-handoff hook (spec section 4.6) fires exactly once per
// newly-discovered node.
func (p *Protocol) promote(n kadid.Node) {
	if n.ID == p.local.ID {
		return
	}
	wasNew := p.rt.IsNewNode(n.ID)
	if err := p.rt.AddContact(n, p.pinger); err != nil {
		return
	}
	if wasNew && p.onNewNode != nil {
		p.onNewNode(n)
	}
}

// CallPing implements the ping verb. withOwnCert attaches the local
// node's certificate explicitly, used for the privileged bootstrap
// path (spec section 4.7) and the NACK rescue flow.
func (p *Protocol) CallPing(ctx context.Context, target kadid.Node, withOwnCert bool) (Outcome, kadid.ID, error) {
	var explicitCert []byte
	if withOwnCert {
		_, der := p.id.OwnCert()
		explicitCert = der
	}
	rp, outcome, err := p.sendSigned(ctx, target, transport.KindPingReq, nil, explicitCert)
	if outcome != OutcomeOK {
		return outcome, kadid.Zero, err
	}
	if len(rp.Args) < 1 || len(rp.Args[0]) != kadid.Size {
		return OutcomeBadSignature, kadid.Zero, nil
	}
	var id kadid.ID
	copy(id[:], rp.Args[0])
	return OutcomeOK, id, nil
}

// CallFindNode implements the find_node verb.
func (p *Protocol) CallFindNode(ctx context.Context, target kadid.Node, targetID kadid.ID) (Outcome, []kadid.Node, error) {
	rp, outcome, err := p.sendSigned(ctx, target, transport.KindFindNodeReq, [][]byte{targetID[:]}, nil)
	if outcome != OutcomeOK {
		return outcome, nil, err
	}
	nodes := make([]kadid.Node, 0, len(rp.Args))
	for _, raw := range rp.Args {
		n, err := decodeNodeTriple(raw)
		if err != nil {
			continue
		}
		nodes = append(nodes, n)
	}
	return OutcomeOK, nodes, nil
}

// FindValueResult is the caller-side result of CallFindValue.
type FindValueResult struct {
	Found  bool
	Value  []byte
	Bucket []kadid.Node
}

// CallFindValue implements the find_value verb. explicitCert, when
// non-nil, exercises the privileged bootstrap case (spec section
// 4.3): key must equal digest(idHex(caller) || "cert") for the
// receiver to accept it.
func (p *Protocol) CallFindValue(ctx context.Context, target kadid.Node, key kadid.ID, explicitCert []byte) (Outcome, FindValueResult, error) {
	rp, outcome, err := p.sendSigned(ctx, target, transport.KindFindValueReq, [][]byte{key[:]}, explicitCert)
	if outcome != OutcomeOK {
		return outcome, FindValueResult{}, err
	}
	if len(rp.Args) < 1 {
		return OutcomeBadSignature, FindValueResult{}, nil
	}
	if rp.Args[0][0] == 1 {
		if len(rp.Args) < 2 {
			return OutcomeBadSignature, FindValueResult{}, nil
		}
		return OutcomeOK, FindValueResult{Found: true, Value: rp.Args[1]}, nil
	}
	nodes := make([]kadid.Node, 0, len(rp.Args)-1)
	for _, raw := range rp.Args[1:] {
		n, err := decodeNodeTriple(raw)
		if err != nil {
			continue
		}
		nodes = append(nodes, n)
	}
	return OutcomeOK, FindValueResult{Bucket: nodes}, nil
}

// CallStore implements the store verb.
func (p *Protocol) CallStore(ctx context.Context, target kadid.Node, key kadid.ID, value []byte) (Outcome, error) {
	_, outcome, err := p.sendSigned(ctx, target, transport.KindStoreReq, [][]byte{key[:], value}, nil)
	return outcome, err
}

// CallAppend implements the append verb.
func (p *Protocol) CallAppend(ctx context.Context, target kadid.Node, key kadid.ID, jsonList []byte) (Outcome, error) {
	rp, outcome, err := p.sendSigned(ctx, target, transport.KindAppendReq, [][]byte{key[:], jsonList}, nil)
	if outcome == OutcomeOK && rp.Policy {
		return OutcomePolicyError, nil
	}
	return outcome, err
}

// CallRemove implements the remove verb.
func (p *Protocol) CallRemove(ctx context.Context, target kadid.Node, key kadid.ID, jsonList []byte) (Outcome, error) {
	rp, outcome, err := p.sendSigned(ctx, target, transport.KindRemoveReq, [][]byte{key[:], jsonList}, nil)
	if outcome == OutcomeOK && rp.Policy {
		return OutcomePolicyError, nil
	}
	return outcome, err
}

var errDrop = errors.New("protocol: drop request, no reply")

// HandleRequest is a transport.Handler implementing the receiver side
// of all six verbs; wire it directly to Transport.Serve.
func (p *Protocol) HandleRequest(ctx context.Context, fromAddr string, req transport.Message) transport.Message {
	resp, err := p.handleRequest(ctx, fromAddr, req)
	if err != nil {
		return transport.Message{ID: req.ID, Kind: transport.KindNoReply}
	}
	return resp
}

func (p *Protocol) handleRequest(ctx context.Context, fromAddr string, req transport.Message) (transport.Message, error) {
	rp, err := decodeRequest(req.Payload)
	if err != nil {
		return transport.Message{}, errDrop
	}

	addr := rp.SenderAddr
	if addr == "" {
		addr = fromAddr
	}
	sender, err := kadid.NodeFromAddr(rp.SenderID, addr)
	if err != nil {
		return transport.Message{}, errDrop
	}

	privileged := req.Kind == transport.KindPingReq || req.Kind == transport.KindFindValueReq
	senderDER, haveCert := p.certs.Get(rp.SenderID.Hex())

	if !haveCert {
		if privileged && len(rp.ExplicitCert) > 0 && privilegedKeyOK(req.Kind, rp.Args, rp.SenderID) {
			der, ok := p.acceptPrivilegedCert(rp)
			if !ok {
				return transport.Message{}, errDrop
			}
			senderDER = der
			haveCert = true
		} else {
			return p.buildNACK(req, rp.Challenge)
		}
	}

	senderCert, err := x509.ParseCertificate(senderDER)
	if err != nil {
		return transport.Message{}, errDrop
	}
	expected := []byte(p.local.ID.Hex() + rp.Challenge)
	if err := p.id.Verify(senderCert, rp.Signature, expected); err != nil {
		metrics.RPCSignatureFailures.Inc()
		return transport.Message{}, errDrop
	}

	p.promote(sender)

	resultArgs, policyErr := p.applyVerb(req.Kind, rp.Args, sender)

	sig, err := p.id.Sign([]byte(rp.Challenge))
	if err != nil {
		return transport.Message{}, errDrop
	}
	out := responsePayload{Policy: policyErr, Args: resultArgs, Signature: sig}
	return transport.Message{ID: req.ID, Kind: responseKindFor(req.Kind), Payload: encodeResponse(out)}, nil
}

func (p *Protocol) buildNACK(req transport.Message, challenge string) (transport.Message, error) {
	sig, err := p.id.Sign([]byte(challenge))
	if err != nil {
		return transport.Message{}, errDrop
	}
	out := responsePayload{NACK: true, Signature: sig}
	return transport.Message{ID: req.ID, Kind: responseKindFor(req.Kind), Payload: encodeResponse(out)}, nil
}

// privilegedKeyOK enforces "the requested key equals
// digest(idHex(caller) || cert)) (for find_value) or any ping" (spec
// section 4.3).
func privilegedKeyOK(kind transport.Kind, args [][]byte, senderID kadid.ID) bool {
	if kind == transport.KindPingReq {
		return true
	}
	if kind != transport.KindFindValueReq || len(args) < 1 {
		return false
	}
	want := kadid.CertKey(senderID.Hex())
	return len(args[0]) == kadid.Size && kadid.ID(args[0][:kadid.Size]) == want
}

// acceptPrivilegedCert validates the explicit certificate and, on
// success, persists it.
func (p *Protocol) acceptPrivilegedCert(rp requestPayload) ([]byte, bool) {
	der, ok := p.acceptPrivilegedCertUnmetered(rp)
	if ok {
		metrics.RPCPrivilegedBootstraps.WithLabelValues("accepted").Inc()
	} else {
		metrics.RPCPrivilegedBootstraps.WithLabelValues("rejected").Inc()
	}
	return der, ok
}

func (p *Protocol) acceptPrivilegedCertUnmetered(rp requestPayload) ([]byte, bool) {
	cert, err := x509.ParseCertificate(rp.ExplicitCert)
	if err != nil {
		return nil, false
	}
	if err := p.id.ValidateChain(context.Background(), cert); err != nil {
		return nil, false
	}
	claimedID, err := identity.IDFromCert(cert)
	if err != nil || claimedID != rp.SenderID {
		return nil, false
	}
	expected := []byte(p.local.ID.Hex() + rp.Challenge)
	if err := p.id.Verify(cert, rp.Signature, expected); err != nil {
		return nil, false
	}
	if err := p.certs.StoreCert(rp.SenderID, rp.ExplicitCert); err != nil {
		return nil, false
	}
	return rp.ExplicitCert, true
}

func responseKindFor(reqKind transport.Kind) transport.Kind {
	switch reqKind {
	case transport.KindPingReq:
		return transport.KindPingResp
	case transport.KindFindNodeReq:
		return transport.KindFindNodeResp
	case transport.KindFindValueReq:
		return transport.KindFindValueResp
	case transport.KindStoreReq:
		return transport.KindStoreResp
	case transport.KindAppendReq:
		return transport.KindAppendResp
	case transport.KindRemoveReq:
		return transport.KindRemoveResp
	default:
		return transport.KindNoReply
	}
}

// applyVerb performs the verb's side effect and returns the
// verb-specific response args plus whether a policy (JSON parse)
// error occurred.
func (p *Protocol) applyVerb(kind transport.Kind, args [][]byte, sender kadid.Node) ([][]byte, bool) {
	switch kind {
	case transport.KindPingReq:
		return [][]byte{p.local.ID[:]}, false

	case transport.KindFindNodeReq:
		if len(args) < 1 || len(args[0]) != kadid.Size {
			return nil, false
		}
		var targetID kadid.ID
		copy(targetID[:], args[0])
		neighbors := p.rt.FindNeighbors(targetID, routing.K, map[kadid.ID]bool{sender.ID: true})
		out := make([][]byte, 0, len(neighbors))
		for _, n := range neighbors {
			out = append(out, encodeNodeTriple(n))
		}
		return out, false

	case transport.KindFindValueReq:
		if len(args) < 1 || len(args[0]) != kadid.Size {
			return nil, false
		}
		var key kadid.ID
		copy(key[:], args[0])
		if found, value := p.store.Get(key.Hex()); found {
			return [][]byte{{1}, value}, false
		}
		neighbors := p.rt.FindNeighbors(key, routing.K, map[kadid.ID]bool{sender.ID: true})
		out := [][]byte{{0}}
		for _, n := range neighbors {
			out = append(out, encodeNodeTriple(n))
		}
		return out, false

	case transport.KindStoreReq:
		if len(args) < 2 || len(args[0]) != kadid.Size {
			return nil, false
		}
		var key kadid.ID
		copy(key[:], args[0])
		p.store.Put(key.Hex(), args[1])
		return nil, false

	case transport.KindAppendReq:
		return p.applySetOp(args, jsonSetUnion)

	case transport.KindRemoveReq:
		return p.applySetOp(args, jsonSetDifference)

	default:
		return nil, false
	}
}

func (p *Protocol) applySetOp(args [][]byte, op func(stored, incoming []byte) ([]byte, error)) ([][]byte, bool) {
	if len(args) < 2 || len(args[0]) != kadid.Size {
		return nil, true
	}
	var key kadid.ID
	copy(key[:], args[0])
	keyHex := key.Hex()

	p.store.MarkSetKey(keyHex)
	found, stored := p.store.Get(keyHex)
	var storedArg []byte
	if found {
		storedArg = stored
	}
	merged, err := op(storedArg, args[1])
	if err != nil {
		return nil, true
	}
	p.store.Put(keyHex, merged)
	return nil, false
}
