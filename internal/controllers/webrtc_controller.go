package controllers

import (
	"context"
	"net"
	"sync"

	"github.com/flavioribeiro/donut-h264/internal/entities"
	"github.com/pion/webrtc/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type WebRTCController struct {
	c   *entities.Config
	l   *zap.SugaredLogger
	api *webrtc.API
}

func NewWebRTCController(
	c *entities.Config,
	l *zap.SugaredLogger,
	api *webrtc.API,
) *WebRTCController {
	return &WebRTCController{
		c:   c,
		l:   l,
		api: api,
	}
}

// CreatePeerConnection returns a peer connection that calls cancel once ICE
// is done with it.
func (c *WebRTCController) CreatePeerConnection(cancel context.CancelFunc) (*webrtc.PeerConnection, error) {
	c.l.Infow("trying to set up web rtc conn")

	peerConnectionConfiguration := webrtc.Configuration{}
	if !c.c.EnableICEMux {
		peerConnectionConfiguration.ICEServers = []webrtc.ICEServer{
			{
				URLs: c.c.StunServers,
			},
		}
	}

	peerConnection, err := c.api.NewPeerConnection(peerConnectionConfiguration)
	if err != nil {
		c.l.Errorw("error while creating a new peer connection",
			"error", err,
		)
		return nil, err
	}

	peerConnection.OnICEConnectionStateChange(func(connectionState webrtc.ICEConnectionState) {
		finished := connectionState == webrtc.ICEConnectionStateClosed ||
			connectionState == webrtc.ICEConnectionStateDisconnected ||
			connectionState == webrtc.ICEConnectionStateFailed

		if finished {
			c.l.Infow("Canceling webrtc",
				"status", connectionState.String(),
			)
			cancel()
		}

		c.l.Infow("OnICEConnectionStateChange",
			"status", connectionState.String(),
		)
	})

	return peerConnection, nil
}

// Connected returns a channel closed once peer reaches the connected state.
// Samples written to a track before that are dropped.
func (c *WebRTCController) Connected(peer *webrtc.PeerConnection) <-chan struct{} {
	connected := make(chan struct{})
	var once sync.Once
	done := func() {
		once.Do(func() { close(connected) })
	}

	peer.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		if state == webrtc.PeerConnectionStateConnected {
			done()
		}
	})
	if peer.ConnectionState() == webrtc.PeerConnectionStateConnected {
		done()
	}
	return connected
}

// CreateTrack adds an H.264 sample track to peer.
func (c *WebRTCController) CreateTrack(peer *webrtc.PeerConnection, id string, streamID string) (*webrtc.TrackLocalStaticSample, error) {
	codecCapability := webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeH264}
	webRTCtrack, err := webrtc.NewTrackLocalStaticSample(codecCapability, id, streamID)
	if err != nil {
		return nil, err
	}

	if _, err := peer.AddTrack(webRTCtrack); err != nil {
		return nil, err
	}
	return webRTCtrack, nil
}

func (c *WebRTCController) CreateDataChannel(peer *webrtc.PeerConnection, channelID string) (*webrtc.DataChannel, error) {
	metadataSender, err := peer.CreateDataChannel(channelID, nil)
	if err != nil {
		return nil, err
	}
	return metadataSender, nil
}

func (c *WebRTCController) SetRemoteDescription(peer *webrtc.PeerConnection, desc webrtc.SessionDescription) error {
	return peer.SetRemoteDescription(desc)
}

func (c *WebRTCController) GatheringWebRTC(peer *webrtc.PeerConnection) (*webrtc.SessionDescription, error) {
	c.l.Infow("Gathering WebRTC Candidates")
	gatherComplete := webrtc.GatheringCompletePromise(peer)
	answer, err := peer.CreateAnswer(nil)
	if err != nil {
		return nil, err
	} else if err = peer.SetLocalDescription(answer); err != nil {
		return nil, err
	}

	<-gatherComplete
	c.l.Infow("Gathering WebRTC Candidates Complete")

	return peer.LocalDescription(), nil
}

type WebRTCSettingsEngineParams struct {
	fx.In
	C *entities.Config

	TCPListener net.Listener   `optional:"true"`
	UDPListener net.PacketConn `optional:"true"`
}

// NewWebRTCSettingsEngine muxes ICE over the TCP and UDP listeners when they
// are provided (Config.EnableICEMux).
func NewWebRTCSettingsEngine(p WebRTCSettingsEngineParams) webrtc.SettingEngine {
	settingEngine := webrtc.SettingEngine{}

	if len(p.C.ICEExternalIPsDNAT) > 0 {
		settingEngine.SetNAT1To1IPs(p.C.ICEExternalIPsDNAT, webrtc.ICECandidateTypeHost)
	}
	if p.TCPListener != nil {
		settingEngine.SetICETCPMux(webrtc.NewICETCPMux(nil, p.TCPListener, p.C.ICEReadBufferSize))
	}
	if p.UDPListener != nil {
		settingEngine.SetICEUDPMux(webrtc.NewICEUDPMux(nil, p.UDPListener))
	}

	return settingEngine
}

func NewWebRTCMediaEngine() (*webrtc.MediaEngine, error) {
	mediaEngine := &webrtc.MediaEngine{}
	if err := mediaEngine.RegisterDefaultCodecs(); err != nil {
		return nil, err
	}
	return mediaEngine, nil
}

func NewWebRTCAPI(mediaEngine *webrtc.MediaEngine, settingEngine webrtc.SettingEngine) *webrtc.API {
	return webrtc.NewAPI(
		webrtc.WithSettingEngine(settingEngine),
		webrtc.WithMediaEngine(mediaEngine),
	)
}

func NewTCPICEServer(c *entities.Config, lc fx.Lifecycle) (net.Listener, error) {
	tcpListener, err := net.ListenTCP("tcp", &net.TCPAddr{
		IP:   net.IP{0, 0, 0, 0},
		Port: c.TCPICEPort,
	})
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return tcpListener.Close()
		},
	})
	return tcpListener, nil
}

func NewUDPICEServer(c *entities.Config, lc fx.Lifecycle) (net.PacketConn, error) {
	udpListener, err := net.ListenUDP("udp", &net.UDPAddr{
		IP:   net.IP{0, 0, 0, 0},
		Port: c.UDPICEPort,
	})
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return udpListener.Close()
		},
	})
	return udpListener, nil
}
