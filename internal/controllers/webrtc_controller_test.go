package controllers

import (
	"context"
	"testing"
	"time"

	"github.com/flavioribeiro/donut-h264/internal/entities"
	"github.com/pion/ice/v2"
	"github.com/pion/logging"
	"github.com/pion/transport/vnet"
	"github.com/pion/webrtc/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newVNetAPI(t *testing.T, wan *vnet.Router, ip string) *webrtc.API {
	t.Helper()
	n := vnet.NewNet(&vnet.NetConfig{StaticIPs: []string{ip}})
	require.NoError(t, wan.AddNet(n))

	settingEngine := webrtc.SettingEngine{}
	settingEngine.SetVNet(n)
	settingEngine.SetICEMulticastDNSMode(ice.MulticastDNSModeDisabled)
	return webrtc.NewAPI(webrtc.WithSettingEngine(settingEngine))
}

func TestWebRTCController_Connected(t *testing.T) {
	wan, err := vnet.NewRouter(&vnet.RouterConfig{
		CIDR:          "1.2.3.0/24",
		LoggerFactory: logging.NewDefaultLoggerFactory(),
	})
	require.NoError(t, err)

	offerAPI := newVNetAPI(t, wan, "1.2.3.4")
	answerAPI := newVNetAPI(t, wan, "1.2.3.5")
	require.NoError(t, wan.Start())
	defer func() { _ = wan.Stop() }()

	c := NewWebRTCController(&entities.Config{EnableICEMux: true}, zap.NewNop().Sugar(), answerAPI)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	answerer, err := c.CreatePeerConnection(cancel)
	require.NoError(t, err)
	defer answerer.Close()
	connected := c.Connected(answerer)

	offerer, err := offerAPI.NewPeerConnection(webrtc.Configuration{})
	require.NoError(t, err)
	defer offerer.Close()
	_, err = offerer.CreateDataChannel(entities.MetadataChannelID, nil)
	require.NoError(t, err)

	offer, err := offerer.CreateOffer(nil)
	require.NoError(t, err)
	gathered := webrtc.GatheringCompletePromise(offerer)
	require.NoError(t, offerer.SetLocalDescription(offer))
	<-gathered

	select {
	case <-connected:
		t.Fatal("connected before any answer")
	default:
	}

	require.NoError(t, c.SetRemoteDescription(answerer, *offerer.LocalDescription()))
	answer, err := c.GatheringWebRTC(answerer)
	require.NoError(t, err)
	require.NoError(t, offerer.SetRemoteDescription(*answer))

	select {
	case <-connected:
	case <-time.After(10 * time.Second):
		t.Fatal("peer did not connect")
	}
	assert.NoError(t, ctx.Err())

	// a late caller sees the state it missed
	select {
	case <-c.Connected(answerer):
	case <-time.After(time.Second):
		t.Fatal("connected state not reported")
	}
}
