package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/openledger/ledger-engine/internal/apperrors"
	"github.com/openledger/ledger-engine/internal/core/domain"
	portsrepo "github.com/openledger/ledger-engine/internal/core/ports/repositories"
	portssvc "github.com/openledger/ledger-engine/internal/core/ports/services"
	"github.com/openledger/ledger-engine/internal/core/services"
	"github.com/openledger/ledger-engine/internal/dto"
)

// --- Mock AccountRepository ---
type MockAccountRepository struct {
	mock.Mock
}

var _ portsrepo.AccountRepository = (*MockAccountRepository)(nil)

func (m *MockAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountsByIDsForUpdate(ctx context.Context, tx portsrepo.Tx, accountIDs []string) (map[string]*domain.Account, error) {
	args := m.Called(ctx, tx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) SaveAccountsInTx(ctx context.Context, tx portsrepo.Tx, accounts []*domain.Account) error {
	args := m.Called(ctx, tx, accounts)
	return args.Error(0)
}

// --- Mock TransactionRepository ---
type MockTransactionRepository struct {
	mock.Mock
}

var _ portsrepo.TransactionRepository = (*MockTransactionRepository)(nil)

func (m *MockTransactionRepository) SaveTransactionInTx(ctx context.Context, tx portsrepo.Tx, txn domain.Transaction) error {
	args := m.Called(ctx, tx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

// --- Mock TxManager ---
type MockTxManager struct {
	mock.Mock
}

var _ portsrepo.TxManager = (*MockTxManager)(nil)

func (m *MockTxManager) Begin(ctx context.Context) (portsrepo.Tx, error) {
	args := m.Called(ctx)
	return args.Get(0), args.Error(1)
}

func (m *MockTxManager) Commit(ctx context.Context, tx portsrepo.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTxManager) Rollback(ctx context.Context, tx portsrepo.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

// --- Test Suite Setup ---
type LedgerServiceTestSuite struct {
	suite.Suite
	mockAccountRepo *MockAccountRepository
	mockTxnRepo     *MockTransactionRepository
	mockTxManager   *MockTxManager
	service         portssvc.LedgerService
	cfg             services.Config
	tx              portsrepo.Tx
}

func (suite *LedgerServiceTestSuite) SetupTest() {
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.mockTxnRepo = new(MockTransactionRepository)
	suite.mockTxManager = new(MockTxManager)
	suite.cfg = services.Config{
		GenesisAccountID: "00000000-0000-0000-0000-000000000001",
		RevenueAccountID: "00000000-0000-0000-0000-000000000002",
		BaseCurrencyCode: "USD",
		TransferFeeRate:  decimal.Zero,
		LockTimeout:      time.Second,
	}
	suite.service = services.NewLedgerService(suite.mockAccountRepo, suite.mockTxnRepo, suite.mockTxManager, suite.cfg)
	suite.tx = "unit-of-work"
}

// newServiceWithFee rebuilds the service with a transfer fee rate.
func (suite *LedgerServiceTestSuite) newServiceWithFee(rate string) portssvc.LedgerService {
	cfg := suite.cfg
	cfg.TransferFeeRate = decimal.RequireFromString(rate)
	return services.NewLedgerService(suite.mockAccountRepo, suite.mockTxnRepo, suite.mockTxManager, cfg)
}

func (suite *LedgerServiceTestSuite) assetAccount(balance int64, allowNegative bool) *domain.Account {
	account, err := domain.NewAccount(uuid.NewString(), "Asset Account", domain.Asset, "USD", allowNegative)
	suite.Require().NoError(err)
	account.Balance.Amount = decimal.NewFromInt(balance)
	return account
}

func (suite *LedgerServiceTestSuite) systemAccount(accountID string, accountType domain.AccountType) *domain.Account {
	account, err := domain.NewAccount(accountID, "System Account", accountType, "USD", true)
	suite.Require().NoError(err)
	return account
}

// expectUnitOfWork wires Begin/Rollback; Rollback is always deferred so it may
// fire after a successful commit too.
func (suite *LedgerServiceTestSuite) expectUnitOfWork() {
	suite.mockTxManager.On("Begin", mock.Anything).Return(suite.tx, nil).Once()
	suite.mockTxManager.On("Rollback", mock.Anything, suite.tx).Return(nil).Maybe()
}

// --- CreateAccount ---

func (suite *LedgerServiceTestSuite) TestCreateAccount_Success() {
	req := dto.CreateAccountRequest{Name: "Alice Checking", AccountType: domain.Asset, CurrencyCode: "USD"}
	suite.mockAccountRepo.On("SaveAccount", mock.Anything, mock.AnythingOfType("domain.Account")).Return(nil).Once()

	account, err := suite.service.CreateAccount(context.Background(), req)

	suite.Require().NoError(err)
	suite.NotEmpty(account.AccountID)
	suite.Equal(domain.Asset, account.AccountType)
	suite.True(account.Balance.IsZero())
	suite.False(account.AllowNegative)
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestCreateAccount_BlankName() {
	_, err := suite.service.CreateAccount(context.Background(), dto.CreateAccountRequest{
		Name: "   ", AccountType: domain.Asset, CurrencyCode: "USD",
	})

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "SaveAccount", mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestCreateAccount_ExplicitAllowNegative() {
	allow := true
	req := dto.CreateAccountRequest{Name: "Overdraft", AccountType: domain.Asset, CurrencyCode: "USD", AllowNegative: &allow}
	suite.mockAccountRepo.On("SaveAccount", mock.Anything, mock.AnythingOfType("domain.Account")).Return(nil).Once()

	account, err := suite.service.CreateAccount(context.Background(), req)

	suite.Require().NoError(err)
	suite.True(account.AllowNegative)
}

// --- Deposit ---

func (suite *LedgerServiceTestSuite) TestDeposit_Success() {
	genesis := suite.systemAccount(suite.cfg.GenesisAccountID, domain.Equity)
	alice := suite.assetAccount(0, false)

	suite.expectUnitOfWork()
	suite.mockAccountRepo.On("FindAccountsByIDsForUpdate", mock.Anything, suite.tx, mock.AnythingOfType("[]string")).
		Return(map[string]*domain.Account{genesis.AccountID: genesis, alice.AccountID: alice}, nil).Once()

	var saved []*domain.Account
	suite.mockAccountRepo.On("SaveAccountsInTx", mock.Anything, suite.tx, mock.AnythingOfType("[]*domain.Account")).
		Run(func(args mock.Arguments) { saved = args.Get(2).([]*domain.Account) }).Return(nil).Once()
	suite.mockTxnRepo.On("SaveTransactionInTx", mock.Anything, suite.tx, mock.AnythingOfType("domain.Transaction")).Return(nil).Once()
	suite.mockTxManager.On("Commit", mock.Anything, suite.tx).Return(nil).Once()

	transactionID, err := suite.service.Deposit(context.Background(), dto.DepositRequest{
		AccountID: alice.AccountID, Amount: decimal.NewFromInt(100), CurrencyCode: "USD",
	})

	suite.Require().NoError(err)
	suite.NotEmpty(transactionID)
	suite.True(decimal.NewFromInt(100).Equal(alice.Balance.Amount))
	// Equity grows on credit, so the genesis counter-posting raises its balance.
	suite.True(decimal.NewFromInt(100).Equal(genesis.Balance.Amount))
	suite.Len(saved, 2)
	suite.mockAccountRepo.AssertExpectations(suite.T())
	suite.mockTxManager.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestDeposit_NonPositiveAmount() {
	_, err := suite.service.Deposit(context.Background(), dto.DepositRequest{
		AccountID: uuid.NewString(), Amount: decimal.Zero, CurrencyCode: "USD",
	})

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockTxManager.AssertNotCalled(suite.T(), "Begin", mock.Anything)
}

// --- TransferFunds ---

func (suite *LedgerServiceTestSuite) TestTransferFunds_NoFee() {
	alice := suite.assetAccount(100, false)
	bob := suite.assetAccount(0, false)

	suite.expectUnitOfWork()
	suite.mockAccountRepo.On("FindAccountsByIDsForUpdate", mock.Anything, suite.tx, mock.AnythingOfType("[]string")).
		Return(map[string]*domain.Account{alice.AccountID: alice, bob.AccountID: bob}, nil).Once()
	suite.mockAccountRepo.On("SaveAccountsInTx", mock.Anything, suite.tx, mock.AnythingOfType("[]*domain.Account")).Return(nil).Once()

	var savedTxn domain.Transaction
	suite.mockTxnRepo.On("SaveTransactionInTx", mock.Anything, suite.tx, mock.AnythingOfType("domain.Transaction")).
		Run(func(args mock.Arguments) { savedTxn = args.Get(2).(domain.Transaction) }).Return(nil).Once()
	suite.mockTxManager.On("Commit", mock.Anything, suite.tx).Return(nil).Once()

	_, err := suite.service.TransferFunds(context.Background(), dto.TransferFundsRequest{
		FromAccountID: alice.AccountID, ToAccountID: bob.AccountID,
		Amount: decimal.NewFromInt(40), CurrencyCode: "USD",
	})

	suite.Require().NoError(err)
	suite.True(decimal.NewFromInt(60).Equal(alice.Balance.Amount))
	suite.True(decimal.NewFromInt(40).Equal(bob.Balance.Amount))
	suite.Len(savedTxn.Postings, 2)
	suite.NoError(savedTxn.Validate())
}

func (suite *LedgerServiceTestSuite) TestTransferFunds_WithFeeSplit() {
	service := suite.newServiceWithFee("0.1")
	alice := suite.assetAccount(100, false)
	bob := suite.assetAccount(0, false)
	revenue := suite.systemAccount(suite.cfg.RevenueAccountID, domain.Asset)

	suite.expectUnitOfWork()
	suite.mockAccountRepo.On("FindAccountsByIDsForUpdate", mock.Anything, suite.tx, mock.AnythingOfType("[]string")).
		Return(map[string]*domain.Account{
			alice.AccountID:   alice,
			bob.AccountID:     bob,
			revenue.AccountID: revenue,
		}, nil).Once()
	suite.mockAccountRepo.On("SaveAccountsInTx", mock.Anything, suite.tx, mock.AnythingOfType("[]*domain.Account")).Return(nil).Once()

	var savedTxn domain.Transaction
	suite.mockTxnRepo.On("SaveTransactionInTx", mock.Anything, suite.tx, mock.AnythingOfType("domain.Transaction")).
		Run(func(args mock.Arguments) { savedTxn = args.Get(2).(domain.Transaction) }).Return(nil).Once()
	suite.mockTxManager.On("Commit", mock.Anything, suite.tx).Return(nil).Once()

	_, err := service.TransferFunds(context.Background(), dto.TransferFundsRequest{
		FromAccountID: alice.AccountID, ToAccountID: bob.AccountID,
		Amount: decimal.NewFromInt(50), CurrencyCode: "USD",
	})

	suite.Require().NoError(err)
	suite.True(decimal.NewFromInt(50).Equal(alice.Balance.Amount))
	suite.True(decimal.NewFromInt(45).Equal(bob.Balance.Amount))
	suite.True(decimal.NewFromInt(5).Equal(revenue.Balance.Amount))
	suite.Len(savedTxn.Postings, 3)
	suite.NoError(savedTxn.Validate())
}

func (suite *LedgerServiceTestSuite) TestTransferFunds_SelfTransfer() {
	accountID := uuid.NewString()
	_, err := suite.service.TransferFunds(context.Background(), dto.TransferFundsRequest{
		FromAccountID: accountID, ToAccountID: accountID,
		Amount: decimal.NewFromInt(10), CurrencyCode: "USD",
	})

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockTxManager.AssertNotCalled(suite.T(), "Begin", mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestTransferFunds_InsufficientFundsRollsBack() {
	alice := suite.assetAccount(30, false)
	bob := suite.assetAccount(0, false)

	suite.mockTxManager.On("Begin", mock.Anything).Return(suite.tx, nil).Once()
	suite.mockTxManager.On("Rollback", mock.Anything, suite.tx).Return(nil).Once()
	suite.mockAccountRepo.On("FindAccountsByIDsForUpdate", mock.Anything, suite.tx, mock.AnythingOfType("[]string")).
		Return(map[string]*domain.Account{alice.AccountID: alice, bob.AccountID: bob}, nil).Once()

	_, err := suite.service.TransferFunds(context.Background(), dto.TransferFundsRequest{
		FromAccountID: alice.AccountID, ToAccountID: bob.AccountID,
		Amount: decimal.NewFromInt(50), CurrencyCode: "USD",
	})

	suite.Require().ErrorIs(err, apperrors.ErrInsufficientFunds)
	suite.True(decimal.NewFromInt(30).Equal(alice.Balance.Amount), "source balance must be unchanged")
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "SaveAccountsInTx", mock.Anything, mock.Anything, mock.Anything)
	suite.mockTxManager.AssertNotCalled(suite.T(), "Commit", mock.Anything, mock.Anything)
	suite.mockTxManager.AssertExpectations(suite.T())
}

// --- PostTransaction ---

func (suite *LedgerServiceTestSuite) TestPostTransaction_ImbalancedFailsBeforeLocking() {
	req := dto.PostTransactionRequest{
		Description: "Broken entry",
		Postings: []dto.PostingRequest{
			{AccountID: uuid.NewString(), Amount: decimal.NewFromInt(100), CurrencyCode: "USD", Type: domain.Debit},
			{AccountID: uuid.NewString(), Amount: decimal.NewFromInt(70), CurrencyCode: "USD", Type: domain.Credit},
		},
	}

	_, err := suite.service.PostTransaction(context.Background(), req)

	suite.ErrorIs(err, apperrors.ErrImbalanced)
	suite.mockTxManager.AssertNotCalled(suite.T(), "Begin", mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_MixedCurrencies() {
	req := dto.PostTransactionRequest{
		Description: "Mixed currencies",
		Postings: []dto.PostingRequest{
			{AccountID: uuid.NewString(), Amount: decimal.NewFromInt(100), CurrencyCode: "USD", Type: domain.Debit},
			{AccountID: uuid.NewString(), Amount: decimal.NewFromInt(100), CurrencyCode: "EUR", Type: domain.Credit},
		},
	}

	_, err := suite.service.PostTransaction(context.Background(), req)

	suite.ErrorIs(err, apperrors.ErrCurrencyMismatch)
	suite.mockTxManager.AssertNotCalled(suite.T(), "Begin", mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_UnknownAccount() {
	alice := suite.assetAccount(100, false)
	missingID := uuid.NewString()

	suite.expectUnitOfWork()
	suite.mockAccountRepo.On("FindAccountsByIDsForUpdate", mock.Anything, suite.tx, mock.AnythingOfType("[]string")).
		Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.PostTransaction(context.Background(), dto.PostTransactionRequest{
		Description: "Unknown account",
		Postings: []dto.PostingRequest{
			{AccountID: alice.AccountID, Amount: decimal.NewFromInt(10), CurrencyCode: "USD", Type: domain.Credit},
			{AccountID: missingID, Amount: decimal.NewFromInt(10), CurrencyCode: "USD", Type: domain.Debit},
		},
	})

	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockTxManager.AssertNotCalled(suite.T(), "Commit", mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_LockContention() {
	suite.expectUnitOfWork()
	suite.mockAccountRepo.On("FindAccountsByIDsForUpdate", mock.Anything, suite.tx, mock.AnythingOfType("[]string")).
		Return(nil, apperrors.ErrContention).Once()

	_, err := suite.service.PostTransaction(context.Background(), dto.PostTransactionRequest{
		Description: "Contended",
		Postings: []dto.PostingRequest{
			{AccountID: uuid.NewString(), Amount: decimal.NewFromInt(10), CurrencyCode: "USD", Type: domain.Credit},
			{AccountID: uuid.NewString(), Amount: decimal.NewFromInt(10), CurrencyCode: "USD", Type: domain.Debit},
		},
	})

	suite.ErrorIs(err, apperrors.ErrContention)
	suite.mockTxManager.AssertNotCalled(suite.T(), "Commit", mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_RollbackOutlivesLockTimeout() {
	cfg := suite.cfg
	cfg.LockTimeout = 10 * time.Millisecond
	service := services.NewLedgerService(suite.mockAccountRepo, suite.mockTxnRepo, suite.mockTxManager, cfg)

	suite.mockTxManager.On("Begin", mock.Anything).Return(suite.tx, nil).Once()
	suite.mockAccountRepo.On("FindAccountsByIDsForUpdate", mock.Anything, suite.tx, mock.AnythingOfType("[]string")).
		Run(func(args mock.Arguments) { time.Sleep(30 * time.Millisecond) }).
		Return(nil, apperrors.ErrContention).Once()

	var rollbackCtx context.Context
	var rollbackCtxErr error
	suite.mockTxManager.On("Rollback", mock.Anything, suite.tx).
		Run(func(args mock.Arguments) {
			rollbackCtx = args.Get(0).(context.Context)
			rollbackCtxErr = rollbackCtx.Err()
		}).Return(nil).Once()

	_, err := service.PostTransaction(context.Background(), dto.PostTransactionRequest{
		Description: "Expired",
		Postings: []dto.PostingRequest{
			{AccountID: uuid.NewString(), Amount: decimal.NewFromInt(10), CurrencyCode: "USD", Type: domain.Credit},
			{AccountID: uuid.NewString(), Amount: decimal.NewFromInt(10), CurrencyCode: "USD", Type: domain.Debit},
		},
	})

	suite.Require().ErrorIs(err, apperrors.ErrContention)
	suite.Require().NotNil(rollbackCtx)
	// The lock-timeout deadline has long passed; the rollback context must
	// still be live at rollback time so the unit of work can be cleaned up.
	// Liveness is recorded inside the Run callback because the service
	// legitimately cancels its bounded rollback context after Rollback returns.
	suite.NoError(rollbackCtxErr)
	suite.mockTxManager.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestPostTransaction_LocksAccountsInSortedOrderOnce() {
	a := suite.assetAccount(100, false)
	b := suite.assetAccount(100, false)
	a.AccountID = "bbb"
	b.AccountID = "aaa"

	suite.expectUnitOfWork()
	suite.mockAccountRepo.On("FindAccountsByIDsForUpdate", mock.Anything, suite.tx, []string{"aaa", "bbb"}).
		Return(map[string]*domain.Account{"aaa": b, "bbb": a}, nil).Once()
	suite.mockAccountRepo.On("SaveAccountsInTx", mock.Anything, suite.tx, mock.AnythingOfType("[]*domain.Account")).Return(nil).Once()
	suite.mockTxnRepo.On("SaveTransactionInTx", mock.Anything, suite.tx, mock.AnythingOfType("domain.Transaction")).Return(nil).Once()
	suite.mockTxManager.On("Commit", mock.Anything, suite.tx).Return(nil).Once()

	// The higher ID appears first in the request; the repository still
	// receives the distinct IDs sorted.
	_, err := suite.service.PostTransaction(context.Background(), dto.PostTransactionRequest{
		Description: "Ordering",
		Postings: []dto.PostingRequest{
			{AccountID: "bbb", Amount: decimal.NewFromInt(10), CurrencyCode: "USD", Type: domain.Credit},
			{AccountID: "aaa", Amount: decimal.NewFromInt(10), CurrencyCode: "USD", Type: domain.Debit},
		},
	})

	suite.Require().NoError(err)
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

// --- Reads ---

func (suite *LedgerServiceTestSuite) TestGetAccount_NotFound() {
	accountID := uuid.NewString()
	suite.mockAccountRepo.On("FindAccountByID", mock.Anything, accountID).Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.GetAccount(context.Background(), accountID)

	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *LedgerServiceTestSuite) TestGetTransaction_Success() {
	txn := domain.NewTransaction("Read back")
	suite.mockTxnRepo.On("FindTransactionByID", mock.Anything, txn.TransactionID).Return(txn, nil).Once()

	found, err := suite.service.GetTransaction(context.Background(), txn.TransactionID)

	suite.Require().NoError(err)
	suite.Equal(txn.TransactionID, found.TransactionID)
}

// --- EnsureSystemAccounts ---

func (suite *LedgerServiceTestSuite) TestEnsureSystemAccounts_ProvisionsMissing() {
	suite.mockAccountRepo.On("FindAccountByID", mock.Anything, suite.cfg.GenesisAccountID).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockAccountRepo.On("FindAccountByID", mock.Anything, suite.cfg.RevenueAccountID).Return(nil, apperrors.ErrNotFound).Once()

	var created []domain.Account
	suite.mockAccountRepo.On("SaveAccount", mock.Anything, mock.AnythingOfType("domain.Account")).
		Run(func(args mock.Arguments) { created = append(created, args.Get(1).(domain.Account)) }).Return(nil).Twice()

	suite.Require().NoError(suite.service.EnsureSystemAccounts(context.Background()))

	suite.Require().Len(created, 2)
	suite.Equal(domain.Equity, created[0].AccountType)
	// The revenue account must be debit-normal so collected fees show up as a
	// positive balance.
	suite.Equal(domain.Asset, created[1].AccountType)
	suite.True(created[0].AllowNegative)
	suite.True(created[1].AllowNegative)

	feeMoney, err := domain.NewMoney(decimal.NewFromInt(5), "USD")
	suite.Require().NoError(err)
	feePosting, err := domain.NewPosting(created[1].AccountID, feeMoney, domain.Debit)
	suite.Require().NoError(err)
	suite.Require().NoError(created[1].PostPosting(feePosting))
	suite.True(decimal.NewFromInt(5).Equal(created[1].Balance.Amount))
}

func (suite *LedgerServiceTestSuite) TestEnsureSystemAccounts_AlreadyProvisioned() {
	genesis := suite.systemAccount(suite.cfg.GenesisAccountID, domain.Equity)
	revenue := suite.systemAccount(suite.cfg.RevenueAccountID, domain.Asset)
	suite.mockAccountRepo.On("FindAccountByID", mock.Anything, suite.cfg.GenesisAccountID).Return(genesis, nil).Once()
	suite.mockAccountRepo.On("FindAccountByID", mock.Anything, suite.cfg.RevenueAccountID).Return(revenue, nil).Once()

	suite.Require().NoError(suite.service.EnsureSystemAccounts(context.Background()))
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "SaveAccount", mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestEnsureSystemAccounts_ToleratesProvisioningRace() {
	suite.mockAccountRepo.On("FindAccountByID", mock.Anything, suite.cfg.GenesisAccountID).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockAccountRepo.On("FindAccountByID", mock.Anything, suite.cfg.RevenueAccountID).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockAccountRepo.On("SaveAccount", mock.Anything, mock.AnythingOfType("domain.Account")).Return(apperrors.ErrDuplicate).Twice()

	suite.Require().NoError(suite.service.EnsureSystemAccounts(context.Background()))
}

func TestLedgerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}
