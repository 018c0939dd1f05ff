// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth_test

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/samber/oops"

	"github.com/holomush/holoauth/internal/auth"
)

var _ = Describe("Account lifecycle", func() {
	var (
		ctx context.Context
		env *scenarioEnv
	)

	BeforeEach(func() {
		ctx = context.Background()
		env = newScenarioEnv()
	})

	It("registers, verifies, logs in, refreshes, and logs out", func() {
		user := env.register(ctx, "a@x.com", "pw123")

		By("refusing login before verification")
		tokens, err := env.sessions.Login(ctx, "a@x.com", "pw123", "scenario")
		Expect(err).To(MatchError(auth.ErrUnverified))
		Expect(oops.GetPublic(err, "")).To(Equal(auth.MsgPleaseVerify))
		Expect(tokens).To(BeNil())

		By("emailing the verification code with the user id")
		emails := env.mail.ofKind(auth.EmailVerification)
		Expect(emails).To(HaveLen(1))
		Expect(emails[0].To).To(Equal("a@x.com"))
		Expect(emails[0].Body).To(ContainSubstring(user.VerificationCode))
		Expect(emails[0].Body).To(ContainSubstring(user.ID.String()))

		By("verifying with the stored code")
		msg, err := env.accounts.Verify(ctx, user.ID.String(), env.stored(ctx, "a@x.com").VerificationCode)
		Expect(err).NotTo(HaveOccurred())
		Expect(msg).To(Equal(auth.MsgVerified))

		By("logging in")
		tokens, err = env.sessions.Login(ctx, "a@x.com", "pw123", "scenario")
		Expect(err).NotTo(HaveOccurred())

		access, err := scenarioSigner.VerifyAccess(tokens.AccessToken)
		Expect(err).NotTo(HaveOccurred())
		Expect(access.UserID).To(Equal(user.ID.String()))
		Expect(access.Verified).To(BeTrue())

		refresh, err := scenarioSigner.VerifyRefresh(tokens.RefreshToken)
		Expect(err).NotTo(HaveOccurred())
		session, err := env.store.Sessions().GetByID(ctx, ulid.MustParse(refresh.SessionID))
		Expect(err).NotTo(HaveOccurred())
		Expect(session.Valid).To(BeTrue())
		Expect(session.UserID).To(Equal(user.ID))
		Expect(session.UserAgent).To(Equal("scenario"))

		By("refreshing the access token")
		refreshed, err := env.sessions.Refresh(ctx, tokens.RefreshToken)
		Expect(err).NotTo(HaveOccurred())
		claims, err := scenarioSigner.VerifyAccess(refreshed)
		Expect(err).NotTo(HaveOccurred())
		Expect(claims.UserID).To(Equal(user.ID.String()))

		By("logging out")
		Expect(env.sessions.LogoutToken(ctx, tokens.RefreshToken)).To(Succeed())

		By("rejecting the unexpired refresh token")
		_, err = env.sessions.Refresh(ctx, tokens.RefreshToken)
		Expect(err).To(MatchError(auth.ErrRefreshRejected))
		Expect(oops.GetPublic(err, "")).To(Equal(auth.MsgRefreshFailed))

		By("accepting a repeated logout")
		Expect(env.sessions.LogoutToken(ctx, tokens.RefreshToken)).To(Succeed())
	})

	It("reports verification outcomes without changing verified users", func() {
		user := env.register(ctx, "b@x.com", "pw123")

		msg, err := env.accounts.Verify(ctx, user.ID.String(), "wrong")
		Expect(err).NotTo(HaveOccurred())
		Expect(msg).To(Equal(auth.MsgVerifyFailed))
		Expect(env.stored(ctx, "b@x.com").Verified).To(BeFalse())

		msg, err = env.accounts.Verify(ctx, ulid.Make().String(), user.VerificationCode)
		Expect(err).NotTo(HaveOccurred())
		Expect(msg).To(Equal(auth.MsgVerifyFailed))

		msg, err = env.accounts.Verify(ctx, user.ID.String(), user.VerificationCode)
		Expect(err).NotTo(HaveOccurred())
		Expect(msg).To(Equal(auth.MsgVerified))

		msg, err = env.accounts.Verify(ctx, user.ID.String(), "anything")
		Expect(err).NotTo(HaveOccurred())
		Expect(msg).To(Equal(auth.MsgAlreadyVerified))
		Expect(env.stored(ctx, "b@x.com").Verified).To(BeTrue())
	})

	It("fails unknown emails and wrong passwords identically", func() {
		env.registerVerified(ctx, "c@x.com", "pw123")

		_, unknownErr := env.sessions.Login(ctx, "nobody@x.com", "pw123", "")
		_, wrongErr := env.sessions.Login(ctx, "c@x.com", "nope", "")

		Expect(unknownErr).To(MatchError(auth.ErrInvalidCredentials))
		Expect(wrongErr).To(MatchError(auth.ErrInvalidCredentials))
		Expect(oops.GetPublic(unknownErr, "")).To(Equal(oops.GetPublic(wrongErr, "")))
	})

	It("rejects a second registration for the same email", func() {
		env.register(ctx, "dup@x.com", "pw123")

		_, err := env.accounts.Register(ctx, auth.Registration{Email: "DUP@x.com", Password: "pw456"})
		Expect(err).To(MatchError(auth.ErrDuplicateEmail))
		Expect(oops.GetPublic(err, "")).To(Equal(auth.MsgAccountExists))
	})
})

var _ = Describe("Password reset", func() {
	var (
		ctx  context.Context
		env  *scenarioEnv
		user *auth.User
	)

	BeforeEach(func() {
		ctx = context.Background()
		env = newScenarioEnv()
		user = env.registerVerified(ctx, "a@x.com", "pw123")
	})

	It("answers existing and unknown emails with the same message", func() {
		other := env.registerVerified(ctx, "other@x.com", "pw123")

		known, err := env.accounts.RequestPasswordReset(ctx, "a@x.com")
		Expect(err).NotTo(HaveOccurred())
		unknown, err := env.accounts.RequestPasswordReset(ctx, "nobody@x.com")
		Expect(err).NotTo(HaveOccurred())

		Expect(known).To(Equal(auth.MsgResetRequested))
		Expect(unknown).To(Equal(known))

		Expect(env.stored(ctx, "a@x.com").PasswordResetCode).NotTo(BeNil())
		Expect(env.stored(ctx, other.Email).PasswordResetCode).To(BeNil())
		Expect(env.mail.ofKind(auth.EmailPasswordReset)).To(HaveLen(1))
	})

	It("tells unverified users they are unverified", func() {
		env.register(ctx, "new@x.com", "pw123")

		msg, err := env.accounts.RequestPasswordReset(ctx, "new@x.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(msg).To(Equal(auth.MsgUserNotVerified))
		Expect(env.stored(ctx, "new@x.com").PasswordResetCode).To(BeNil())
	})

	It("replaces the password only with the right code", func() {
		_, err := env.accounts.RequestPasswordReset(ctx, "a@x.com")
		Expect(err).NotTo(HaveOccurred())
		code := *env.stored(ctx, "a@x.com").PasswordResetCode

		By("rejecting a wrong code")
		err = env.accounts.ResetPassword(ctx, user.ID.String(), "wrong-code", "newpass")
		Expect(err).To(MatchError(auth.ErrResetRejected))
		Expect(oops.GetPublic(err, "")).To(Equal(auth.MsgResetFailed))

		By("accepting the stored code")
		Expect(env.accounts.ResetPassword(ctx, user.ID.String(), code, "newpass")).To(Succeed())
		Expect(env.stored(ctx, "a@x.com").PasswordResetCode).To(BeNil())

		By("logging in with the new password only")
		_, err = env.sessions.Login(ctx, "a@x.com", "newpass", "")
		Expect(err).NotTo(HaveOccurred())
		_, err = env.sessions.Login(ctx, "a@x.com", "pw123", "")
		Expect(err).To(MatchError(auth.ErrInvalidCredentials))

		By("refusing to reuse the code")
		err = env.accounts.ResetPassword(ctx, user.ID.String(), code, "another")
		Expect(err).To(MatchError(auth.ErrResetRejected))
	})

	It("rejects a reset that was never requested", func() {
		err := env.accounts.ResetPassword(ctx, user.ID.String(), "", "newpass")
		Expect(err).To(MatchError(auth.ErrResetRejected))
	})
})

var _ = Describe("Concurrent sessions", func() {
	var (
		ctx  context.Context
		env  *scenarioEnv
		user *auth.User
	)

	BeforeEach(func() {
		ctx = context.Background()
		env = newScenarioEnv()
		user = env.registerVerified(ctx, "a@x.com", "pw123")
	})

	It("gives each concurrent login its own valid session", func() {
		const logins = 4
		results := make([]*auth.Tokens, logins)
		errs := make([]error, logins)

		var wg sync.WaitGroup
		for i := range logins {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i], errs[i] = env.sessions.Login(ctx, "a@x.com", "pw123", "")
			}()
		}
		wg.Wait()

		seen := map[string]bool{}
		for i := range logins {
			Expect(errs[i]).NotTo(HaveOccurred())
			claims, err := scenarioSigner.VerifyRefresh(results[i].RefreshToken)
			Expect(err).NotTo(HaveOccurred())
			seen[claims.SessionID] = true

			session, err := env.store.Sessions().GetByID(ctx, ulid.MustParse(claims.SessionID))
			Expect(err).NotTo(HaveOccurred())
			Expect(session.Valid).To(BeTrue())
			Expect(session.UserID).To(Equal(user.ID))
		}
		Expect(seen).To(HaveLen(logins))
	})

	It("keeps other sessions alive when one logs out", func() {
		first, err := env.sessions.Login(ctx, "a@x.com", "pw123", "")
		Expect(err).NotTo(HaveOccurred())
		second, err := env.sessions.Login(ctx, "a@x.com", "pw123", "")
		Expect(err).NotTo(HaveOccurred())

		Expect(env.sessions.LogoutToken(ctx, first.RefreshToken)).To(Succeed())

		_, err = env.sessions.Refresh(ctx, first.RefreshToken)
		Expect(err).To(MatchError(auth.ErrRefreshRejected))
		_, err = env.sessions.Refresh(ctx, second.RefreshToken)
		Expect(err).NotTo(HaveOccurred())
	})

	It("allows repeated refreshes against one session", func() {
		tokens, err := env.sessions.Login(ctx, "a@x.com", "pw123", "")
		Expect(err).NotTo(HaveOccurred())

		var wg sync.WaitGroup
		errs := make([]error, 3)
		for i := range errs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = env.sessions.Refresh(ctx, tokens.RefreshToken)
			}()
		}
		wg.Wait()
		for _, err := range errs {
			Expect(err).NotTo(HaveOccurred())
		}
	})
})

var _ = Describe("Request identity", func() {
	var (
		ctx    context.Context
		env    *scenarioEnv
		user   *auth.User
		tokens *auth.Tokens
	)

	BeforeEach(func() {
		ctx = context.Background()
		env = newScenarioEnv()
		user = env.registerVerified(ctx, "a@x.com", "pw123")

		var err error
		tokens, err = env.sessions.Login(ctx, "a@x.com", "pw123", "")
		Expect(err).NotTo(HaveOccurred())
	})

	It("uses a valid access token as is", func() {
		id := env.resolver.Resolve(ctx, tokens.AccessToken, "")
		Expect(id.Anonymous()).To(BeFalse())
		Expect(id.Claims.UserID).To(Equal(user.ID.String()))
		Expect(id.RefreshedAccessToken).To(BeEmpty())
	})

	It("refreshes transparently when the access token is unusable", func() {
		id := env.resolver.Resolve(ctx, "not-a-token", tokens.RefreshToken)
		Expect(id.Anonymous()).To(BeFalse())
		Expect(id.Claims.UserID).To(Equal(user.ID.String()))
		Expect(id.RefreshedAccessToken).NotTo(BeEmpty())
	})

	It("stays anonymous once the session is revoked", func() {
		Expect(env.sessions.LogoutToken(ctx, tokens.RefreshToken)).To(Succeed())

		id := env.resolver.Resolve(ctx, "", tokens.RefreshToken)
		Expect(id.Anonymous()).To(BeTrue())
	})

	It("does not accept a refresh token as an access token", func() {
		id := env.resolver.Resolve(ctx, tokens.RefreshToken, "")
		Expect(id.Anonymous()).To(BeTrue())
	})
})
