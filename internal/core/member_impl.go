package core

import "github.com/dverner/matinee/internal/domain"

// memberSession implements MemberSession by pairing meta + transports.
type memberSession struct {
	meta   *domain.Member
	signal SignalConnection
	media  MediaConnection
}

func NewMemberSession(meta *domain.Member) MemberSession {
	return &memberSession{meta: meta}
}

func (m *memberSession) Meta() *domain.Member     { return m.meta }
func (m *memberSession) Signal() SignalConnection { return m.signal }
func (m *memberSession) Media() MediaConnection   { return m.media }

func (m *memberSession) UpdateSignal(s SignalConnection) MemberSession {
	m.signal = s
	return m
}

func (m *memberSession) UpdateMedia(mc MediaConnection) MemberSession {
	m.media = mc
	return m
}
