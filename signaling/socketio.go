package signaling

import (
	"github.com/sirupsen/logrus"
	"github.com/zishang520/engine.io/v2/types"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

// NewSocketServer builds the socket.io server and wires the signaling
// service onto it. One socket is one connection; its socket id is the
// connection id the registry tracks.
func NewSocketServer(service *Service) *socketio.Server {
	opts := socketio.DefaultServerOptions()
	opts.SetPath("/socket.io")
	opts.SetAllowEIO3(true)
	opts.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})
	srv := socketio.NewServer(nil, opts)

	srv.On("connection", func(clients ...any) {
		socket, ok := clients[0].(*socketio.Socket)
		if !ok {
			return
		}
		connID := string(socket.Id())
		logrus.WithField("connection_id", connID).Info("Signaling connection established")

		socket.On(EventJoinRoom, func(datas ...any) {
			outs := service.Join(connID, firstArg(datas))
			// Membership in the socket.io room must mirror the registry so
			// the broadcasts below reach the joiner's peers.
			for _, out := range outs {
				socket.Join(socketio.Room(out.RoomID))
			}
			deliver(srv, socket, outs)
		})

		for _, event := range []string{EventOffer, EventAnswer, EventICECandidate} {
			event := event
			socket.On(event, func(datas ...any) {
				deliver(srv, socket, service.Relay(connID, event, firstArg(datas)))
			})
		}

		socket.On("disconnecting", func(datas ...any) {
			deliver(srv, socket, service.Disconnect(connID))
		})

		socket.On("disconnect", func(datas ...any) {
			logrus.WithField("connection_id", connID).Info("Signaling connection closed")
			socket.RemoveAllListeners("")
		})
	})

	return srv
}

// deliver emits the outbound broadcasts a handler produced, after the
// registry mutation that shaped them has committed.
func deliver(srv *socketio.Server, socket *socketio.Socket, outs []Outbound) {
	for _, out := range outs {
		room := socketio.Room(out.RoomID)
		if out.ExcludeSender {
			socket.Broadcast().To(room).Emit(out.Event, out.Payload)
		} else {
			srv.In(room).Emit(out.Event, out.Payload)
		}
	}
}

func firstArg(datas []any) any {
	if len(datas) == 0 {
		return nil
	}
	return datas[0]
}
