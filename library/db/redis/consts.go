package redis

const (
	// KeyPrefixRevokedToken marks admin tokens revoked by logout, suffixed by token id.
	KeyPrefixRevokedToken = "cms/admin/revoked/"
	// KeyPrefixLoginFailures counts failed logins per account.
	KeyPrefixLoginFailures = "cms/admin/login_failures/"
)
