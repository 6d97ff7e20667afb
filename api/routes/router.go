package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shoplyhq/shoply-backend/api/controllers"
	addresscontrollers "github.com/shoplyhq/shoply-backend/api/controllers/addresses"
	cartcontrollers "github.com/shoplyhq/shoply-backend/api/controllers/cart"
	checkoutcontrollers "github.com/shoplyhq/shoply-backend/api/controllers/checkout"
	ordercontrollers "github.com/shoplyhq/shoply-backend/api/controllers/orders"
	"github.com/shoplyhq/shoply-backend/api/middleware"
	"github.com/shoplyhq/shoply-backend/internal/addresses"
	cartsvc "github.com/shoplyhq/shoply-backend/internal/cart"
	"github.com/shoplyhq/shoply-backend/internal/catalog"
	checkoutsvc "github.com/shoplyhq/shoply-backend/internal/checkout"
	"github.com/shoplyhq/shoply-backend/internal/orders"
	"github.com/shoplyhq/shoply-backend/internal/sellers"
	"github.com/shoplyhq/shoply-backend/pkg/config"
	"github.com/shoplyhq/shoply-backend/pkg/db"
	"github.com/shoplyhq/shoply-backend/pkg/logger"
	"github.com/shoplyhq/shoply-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	promGatherer prometheus.Gatherer,
	cartFactory *cartsvc.Factory,
	catalogService catalog.Service,
	sellerService sellers.Service,
	checkoutManager *checkoutsvc.Manager,
	addressService addresses.Service,
	orderService orders.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if promGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(promGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(
			middleware.Identity(cfg.JWT, logg),
			middleware.Idempotency(redisClient, logg),
		)

		r.Get("/products/{productID}", controllers.ProductFetch(catalogService, logg))
		r.Get("/sellers/{sellerID}", controllers.SellerFetch(sellerService, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(cartFactory, logg))
			r.Get("/validate", cartcontrollers.CartValidate(cartFactory, logg))
			r.Post("/select-all", cartcontrollers.CartSelectAll(cartFactory, logg))

			r.Post("/items", cartcontrollers.CartAddItem(cartFactory, catalogService, logg))
			r.Patch("/items/{itemID}", cartcontrollers.CartUpdateQuantity(cartFactory, logg))
			r.Delete("/items/{itemID}", cartcontrollers.CartRemoveItem(cartFactory, logg))
			r.Post("/items/{itemID}/save-for-later", cartcontrollers.CartSaveForLater(cartFactory, logg))
			r.Post("/items/{itemID}/move-to-cart", cartcontrollers.CartMoveToCart(cartFactory, logg))
			r.Put("/items/{itemID}/selection", cartcontrollers.CartSelectItem(cartFactory, logg))

			r.Delete("/sellers/{sellerID}", cartcontrollers.CartRemoveSeller(cartFactory, logg))
			r.Put("/sellers/{sellerID}/selection", cartcontrollers.CartSelectSeller(cartFactory, logg))

			r.Post("/coupons", cartcontrollers.CartApplyCoupon(cartFactory, logg))
			r.Post("/coupons/auto-apply", cartcontrollers.CartAutoApplyCoupon(cartFactory, cfg.Cart, logg))
			r.Delete("/coupons", cartcontrollers.CartRemoveCoupon(cartFactory, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", checkoutcontrollers.CheckoutBegin(checkoutManager, logg))
			r.Get("/", checkoutcontrollers.CheckoutSession(checkoutManager, logg))
			r.Delete("/", checkoutcontrollers.CheckoutAbandon(checkoutManager, logg))
			r.Post("/auth/complete", checkoutcontrollers.CheckoutCompleteAuth(checkoutManager, logg))
			r.Put("/address", checkoutcontrollers.CheckoutSubmitAddress(checkoutManager, logg))
			r.Put("/payment", checkoutcontrollers.CheckoutSelectPayment(checkoutManager, logg))
			r.Put("/shipping-method", checkoutcontrollers.CheckoutSetShippingMethod(checkoutManager, logg))
			r.Put("/note", checkoutcontrollers.CheckoutSetNote(checkoutManager, logg))
			r.Post("/terms", checkoutcontrollers.CheckoutAcceptTerms(checkoutManager, logg))
			r.Get("/review", checkoutcontrollers.CheckoutReview(checkoutManager, logg))
			r.Post("/place-order", checkoutcontrollers.CheckoutPlaceOrder(checkoutManager, logg))
			r.Post("/recover", checkoutcontrollers.CheckoutRecover(checkoutManager, logg))
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Use(middleware.RequireUser(logg))
			r.Get("/", addresscontrollers.AddressList(addressService, logg))
			r.Post("/", addresscontrollers.AddressCreate(addressService, logg))
			r.Get("/{addressID}", addresscontrollers.AddressFetch(addressService, logg))
			r.Put("/{addressID}", addresscontrollers.AddressUpdate(addressService, logg))
			r.Delete("/{addressID}", addresscontrollers.AddressDelete(addressService, logg))
		})

		r.With(middleware.RequireUser(logg)).Get("/orders", ordercontrollers.OrderList(orderService, logg))
	})

	return r
}
