package client_test

import (
	"context"
	"testing"
	"time"

	"wirehttp/application/http"
	"wirehttp/application/http/actor/client"
	"wirehttp/application/http/h1"
	"wirehttp/transport/middleware"
	"wirehttp/transport/test"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
)

const (
	getRoot = "GET / HTTP/1.1\r\nhost: example.com\r\nuser-agent: wirehttp\r\naccept: */*\r\n\r\n"
	okHello = "HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhello"
)

type ClientTestSuite struct {
	suite.Suite

	stub   *test.Stub
	clock  *clock.Mock
	client *client.Client
}

func TestClientTestSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func (s *ClientTestSuite) SetupTest() {
	s.stub = test.NewStub()
	s.clock = clock.NewMock()
	s.client = client.New(middleware.Build(s.stub, middleware.NewBase()), nil, s.clock, client.DefaultOptions())
}

func (s *ClientTestSuite) TearDownTest() {
	s.NoError(s.client.Close())
	goleak.VerifyNone(s.T())
}

func (s *ClientTestSuite) request(rawURL string) (*client.Response, error) {
	return s.client.Request(context.Background(), "GET", rawURL)
}

func (s *ClientTestSuite) TestRequest() {
	sock := test.NewScriptedConn().
		Expect("GET /path?q=1 HTTP/1.1\r\nhost: example.com\r\nuser-agent: wirehttp\r\naccept: */*\r\n\r\n").
		Reply("HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nContent-Length: 5\r\n\r\nhello")
	s.stub.StubTCP("example.com", 80, sock)

	res, err := s.request("http://example.com/path?q=1")
	s.Require().NoError(err)

	s.Equal(200, res.Status)
	s.Equal(http.Version11, res.Version)
	s.Equal([][2]string{
		{"content-type", "text/plain"},
		{"content-length", "5"},
	}, res.Headers.Fields())
	s.Equal("hello", string(res.Body))
	s.True(sock.Done())
}

func (s *ClientTestSuite) TestHTTPS() {
	sock := test.NewScriptedConn().
		Expect(getRoot).
		Reply("HTTP/1.1 204 No Content\r\n\r\n")
	s.stub.StubTLS("example.com", 443, sock)

	res, err := s.request("https://example.com")
	s.Require().NoError(err)

	s.Equal(204, res.Status)
	s.Empty(res.Body)
	s.NotNil(res.Body)
}

func (s *ClientTestSuite) TestHost() {
	testCases := []struct {
		rawURL   string
		hostname string
		port     uint16
		host     string
	}{
		{"http://example.com:8080/", "example.com", 8080, "example.com:8080"},
		{"http://example.com:80/", "example.com", 80, "example.com"},
		{"http://[::1]/", "::1", 80, "[::1]"},
		{"http://[::1]:8080/", "::1", 8080, "[::1]:8080"},
		{"http://127.0.0.1/", "127.0.0.1", 80, "127.0.0.1"},
	}

	for _, tc := range testCases {
		sock := test.NewScriptedConn().
			Expect("GET / HTTP/1.1\r\nhost: " + tc.host + "\r\nuser-agent: wirehttp\r\naccept: */*\r\n\r\n").
			Reply("HTTP/1.1 200 OK\r\nConnection: close\r\nContent-Length: 0\r\n\r\n")
		s.stub.StubTCP(tc.hostname, tc.port, sock)

		_, err := s.request(tc.rawURL)
		s.NoError(err, tc.rawURL)
		s.True(sock.Done(), tc.rawURL)
	}
}

func (s *ClientTestSuite) TestKeepAlive() {
	sock := test.NewScriptedConn().
		Expect(getRoot).
		Reply(okHello).
		Expect(getRoot).
		Reply("HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nworld")
	s.stub.StubTCP("example.com", 80, sock)

	res, err := s.request("http://example.com/")
	s.Require().NoError(err)
	s.Equal("hello", string(res.Body))
	s.False(sock.Closed())

	res, err = s.request("http://example.com/")
	s.Require().NoError(err)
	s.Equal("world", string(res.Body))

	s.True(sock.Done())
	s.Zero(s.stub.Remaining())
}

func (s *ClientTestSuite) TestRetryOnStaleConnection() {
	// The peer closed the first connection after one exchange.
	stale := test.NewScriptedConn().Expect(getRoot).Reply(okHello)
	fresh := test.NewScriptedConn().Expect(getRoot).Reply(okHello)
	s.stub.StubTCP("example.com", 80, stale).StubTCP("example.com", 80, fresh)

	_, err := s.request("http://example.com/")
	s.Require().NoError(err)

	res, err := s.request("http://example.com/")
	s.Require().NoError(err)
	s.Equal("hello", string(res.Body))

	s.True(stale.Closed())
	s.True(fresh.Done())
}

func (s *ClientTestSuite) TestRetryOnReadFailure() {
	// The second request is accepted but reading its response fails.
	stale := test.NewScriptedConn().
		Expect(getRoot).
		Reply(okHello).
		Expect(getRoot).
		Expect("unreachable")
	fresh := test.NewScriptedConn().Expect(getRoot).Reply(okHello)
	s.stub.StubTCP("example.com", 80, stale).StubTCP("example.com", 80, fresh)

	_, err := s.request("http://example.com/")
	s.Require().NoError(err)

	res, err := s.request("http://example.com/")
	s.Require().NoError(err)
	s.Equal("hello", string(res.Body))

	s.True(stale.Closed())
	s.True(fresh.Done())
}

func (s *ClientTestSuite) TestHead() {
	head := "HEAD / HTTP/1.1\r\nhost: example.com\r\nuser-agent: wirehttp\r\naccept: */*\r\n\r\n"
	sock := test.NewScriptedConn().
		Expect(head).
		Reply("HTTP/1.1 200 OK\r\nContent-Length: 13\r\n\r\n").
		Expect(getRoot).
		Reply(okHello)
	s.stub.StubTCP("example.com", 80, sock)

	res, err := s.client.Request(context.Background(), "HEAD", "http://example.com/")
	s.Require().NoError(err)
	s.Equal(200, res.Status)
	s.Empty(res.Body)

	cl, _ := res.Headers.Get("content-length")
	s.Equal("13", cl)

	// The connection is kept for the next request.
	res, err = s.request("http://example.com/")
	s.Require().NoError(err)
	s.Equal("hello", string(res.Body))
	s.True(sock.Done())
}

func (s *ClientTestSuite) TestNoRetryAfterResponseStarted() {
	sock := test.NewScriptedConn().
		Expect(getRoot).
		Reply(okHello).
		Expect(getRoot).
		Reply("HTTP/1.1 200 OK\r\nContent-Length: 10\r\n\r\nhel")
	s.stub.StubTCP("example.com", 80, sock)

	_, err := s.request("http://example.com/")
	s.Require().NoError(err)

	_, err = s.request("http://example.com/")
	s.Require().Error(err)
	s.True(sock.Closed())
}

func (s *ClientTestSuite) TestIdleTimeout() {
	old := test.NewScriptedConn().Expect(getRoot).Reply(okHello)
	fresh := test.NewScriptedConn().Expect(getRoot).Reply(okHello)
	s.stub.StubTCP("example.com", 80, old).StubTCP("example.com", 80, fresh)

	_, err := s.request("http://example.com/")
	s.Require().NoError(err)

	s.clock.Add(client.DefaultOptions().Timeout.IdleTimeout)

	_, err = s.request("http://example.com/")
	s.Require().NoError(err)

	s.True(old.Closed())
	s.True(fresh.Done())
}

func (s *ClientTestSuite) TestNotKeptAlive() {
	testCases := []struct {
		name     string
		response string
		body     string
	}{
		{"connection close", "HTTP/1.1 200 OK\r\nConnection: keep-alive, Close\r\nContent-Length: 5\r\n\r\nhello", "hello"},
		{"http/1.0", "HTTP/1.0 200 OK\r\nContent-Length: 5\r\n\r\nhello", "hello"},
		{"body until close", "HTTP/1.1 200 OK\r\n\r\nhello", "hello"},
	}

	for _, tc := range testCases {
		sock := test.NewScriptedConn().Expect(getRoot).Reply(tc.response)
		s.stub.StubTCP("example.com", 80, sock)

		res, err := s.request("http://example.com/")
		s.Require().NoError(err, tc.name)
		s.Equal(tc.body, string(res.Body), tc.name)
		s.True(sock.Closed(), tc.name)
	}
}

func (s *ClientTestSuite) TestInformational() {
	sock := test.NewScriptedConn().
		Expect(getRoot).
		Reply("HTTP/1.1 100 Continue\r\n\r\n" +
			"HTTP/1.1 103 Early Hints\r\nLink: </style.css>\r\n\r\n" +
			okHello)
	s.stub.StubTCP("example.com", 80, sock)

	res, err := s.request("http://example.com/")
	s.Require().NoError(err)

	s.Equal(200, res.Status)
	s.False(res.Headers.Has("link"))
	s.Equal("hello", string(res.Body))
}

func (s *ClientTestSuite) TestChunked() {
	sock := test.NewScriptedConn().
		Expect(getRoot).
		Reply("HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nhello\r\n0\r\n\r\n")
	s.stub.StubTCP("example.com", 80, sock)

	_, err := s.request("http://example.com/")
	s.ErrorIs(err, h1.ErrUnsupportedFraming)
	s.True(sock.Closed())
}

func (s *ClientTestSuite) TestInvalidURL() {
	testCases := []struct {
		rawURL string
		err    error
	}{
		{"ftp://example.com/", client.ErrUnsupportedScheme},
		{"example.com/", client.ErrMissingHostname},
		{"http:///path", client.ErrMissingHostname},
	}

	for _, tc := range testCases {
		_, err := s.request(tc.rawURL)
		s.ErrorIs(err, tc.err, tc.rawURL)
	}

	_, err := s.request("http://example.com:99999/")
	s.Error(err)
}

func (s *ClientTestSuite) TestConnectFailure() {
	_, err := s.request("http://example.com/")

	var terr *middleware.TransportError
	s.Require().ErrorAs(err, &terr)
	s.Equal("tcp connect", terr.Op)
	s.ErrorIs(err, test.ErrNotStubbed)
}

func (s *ClientTestSuite) TestKeepAliveDisabled() {
	opts := client.DefaultOptions()
	opts.Conn.MaxIdleConnsPerHost = 0
	c := client.New(middleware.Build(s.stub, middleware.NewBase()), nil, s.clock, opts)
	defer c.Close()

	sock := test.NewScriptedConn().Expect(getRoot).Reply(okHello)
	s.stub.StubTCP("example.com", 80, sock)

	_, err := c.Request(context.Background(), "GET", "http://example.com/")
	s.Require().NoError(err)
	s.True(sock.Closed())
}

func (s *ClientTestSuite) TestTimeoutFromContext() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	sock := test.NewScriptedConn().Expect(getRoot).Reply(okHello)
	s.stub.StubTCP("example.com", 80, sock)

	res, err := s.client.Request(ctx, "GET", "http://example.com/")
	s.Require().NoError(err)
	s.Equal(200, res.Status)
}
