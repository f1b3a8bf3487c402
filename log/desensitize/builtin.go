package desensitize

const mask = "******"

var (
	// EmailRule 邮箱 (user@example.com -> u***r@e***.com)
	EmailRule = MustNewContentRule(
		"email",
		`\b([A-Za-z0-9])[A-Za-z0-9._%+-]*([A-Za-z0-9])@([A-Za-z0-9])[A-Za-z0-9.-]*\.([A-Za-z]{2,})\b`,
		"$1***$2@$3***.$4",
	)

	// BearerRule Authorization 头中的 Bearer 凭证
	BearerRule = MustNewContentRule(
		"bearer",
		`(?i)(bearer\s+)[A-Za-z0-9\-._~+/]+=*`,
		"${1}"+mask,
	)

	// TokenRule JSON 中的 token 字段
	TokenRule = MustNewFieldRule("token", "token", `.+`, mask)

	// PasswordRule JSON 中的 password 字段
	PasswordRule = MustNewFieldRule("password", "password", `.+`, mask)

	// SecretRule JSON 中的 secret 字段
	SecretRule = MustNewFieldRule("secret", "secret", `.+`, mask)
)

// BuiltinRules 返回服务默认启用的内置规则
func BuiltinRules() []Rule {
	return []Rule{BearerRule, TokenRule, PasswordRule, SecretRule}
}
