package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"trendora-client/api"
	"trendora-client/cart"
	"trendora-client/catalog"
	"trendora-client/checkout"
	"trendora-client/config"
	"trendora-client/localstore"
	"trendora-client/logger"
	"trendora-client/models"
	"trendora-client/session"
	"trendora-client/syncer"
)

// app wires the storefront engine together and plays the view layer's role:
// it re-renders (prints) on store changes and turns commands into store calls.
type app struct {
	store    localstore.Store
	api      *api.Client
	session  *session.Manager
	cart     *cart.Manager
	catalog  *catalog.Service
	checkout *checkout.Service
	coord    *syncer.Coordinator

	// last listing shown, so "add <n>" can refer to it by position
	listing []models.Product
}

func main() {
	log := logger.Get()

	// Load environment variables
	if err := config.LoadEnv(); err != nil {
		log.Fatal().Err(err).Msg("error loading .env file")
	}
	if err := config.ValidateEnv(); err != nil {
		log.Fatal().Err(err).Msg("environment validation failed")
	}

	store, err := localstore.Open(config.StorePath())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open local store")
	}

	a := &app{store: store}
	a.api = api.New(config.APIBaseURL(), config.HTTPTimeout())
	a.session = session.NewManager(store, a.api)
	a.cart = cart.NewManager(store)
	a.catalog = catalog.NewService(a.api, store)
	a.checkout = checkout.NewService(a.api, a.cart, a.session)

	a.api.SetAuthFailureHook(func() {
		a.session.Invalidate("/checkout")
		a.teardownSync()
		fmt.Println("Session expired, please log in again.")
	})
	a.cart.OnChange(func() {
		fmt.Printf("[cart: %d items, %.2f]\n", a.cart.CountItems(), a.cart.TotalPrice())
	})

	// Adopt server-side state for a persisted session (cart filled on
	// another device wins over stale local state).
	if user, ok := a.session.Current(); ok {
		a.startSession(user.ID.String())
	}

	a.repl()

	// Flush a pending debounce so quitting inside the quiet period does not
	// lose the final cart state.
	if a.coord != nil {
		ctx, cancel := context.WithTimeout(context.Background(), config.HTTPTimeout())
		a.coord.Flush(ctx)
		cancel()
		a.coord.Close()
	}
	if err := store.Close(); err != nil {
		log.Warn().Err(err).Msg("error closing local store")
	}
	log.Info().Msg("bye")
}

// startSession builds the per-session coordinator, wires it to the cart and
// adopts the server's cart.
func (a *app) startSession(userID string) {
	a.coord = syncer.New(a.api, userID, config.SyncDebounce(),
		func() []models.CartLine { return a.cart.Items() },
		func(lines []models.CartLine) { a.cart.ReplaceCart(lines) })
	a.cart.SetScheduler(a.coord)

	go func() {
		for r := range a.coord.Results() {
			if r.Err != nil {
				logger.Get().Warn().Err(r.Err).Str("op", string(r.Op)).Msg("sync result")
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), config.HTTPTimeout())
	defer cancel()
	if err := a.coord.Pull(ctx); err != nil {
		fmt.Println("could not fetch your saved cart, keeping local one")
	}
}

func (a *app) teardownSync() {
	if a.coord != nil {
		a.coord.Close()
		a.coord = nil
	}
	a.cart.SetScheduler(nil)
}

func (a *app) repl() {
	fmt.Println("trendora storefront - type 'help' for commands")
	sc := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !sc.Scan() {
			return
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if a.run(strings.Fields(line)) {
			return
		}
	}
}

// run executes one command; returns true to quit.
func (a *app) run(args []string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch args[0] {
	case "help":
		fmt.Println(`products | search <q> | category <name> | add <n> | cart | rm <i> | qty <i> <delta>
clear | wish | wishadd <n> | wishrm <id> | wishmove <id> | login <email|phone> <password>
logout | checkout <name>;<email>;<address>;<phone> | quit`)
	case "products":
		products, err := a.catalog.Products(ctx)
		if err != nil {
			fmt.Println("error:", err)
			return false
		}
		a.showListing(products)
	case "search":
		if len(args) < 2 {
			fmt.Println("usage: search <query>")
			return false
		}
		products, err := a.catalog.Search(ctx, strings.Join(args[1:], " "))
		if err != nil {
			fmt.Println("error:", err)
			return false
		}
		a.showListing(products)
	case "category":
		if len(args) < 2 {
			fmt.Println("usage: category <name>")
			return false
		}
		products, err := a.catalog.ByCategory(ctx, args[1])
		if err != nil {
			fmt.Println("error:", err)
			return false
		}
		a.showListing(products)
	case "add":
		if p, ok := a.pickFromListing(arg(args, 1)); ok {
			a.cart.AddItem(p)
		}
	case "cart":
		for i, l := range a.cart.Items() {
			fmt.Printf("%d. %s x%d @ %.2f\n", i, l.Name, l.Quantity, l.UnitPrice)
		}
		fmt.Printf("total: %.2f (%d items)\n", a.cart.TotalPrice(), a.cart.CountItems())
	case "rm":
		i, err := strconv.Atoi(arg(args, 1))
		if err != nil {
			fmt.Println("usage: rm <index>")
			return false
		}
		if removed, ok := a.cart.RemoveItem(i); ok {
			fmt.Println("removed", removed.Name)
		}
	case "qty":
		i, err1 := strconv.Atoi(arg(args, 1))
		d, err2 := strconv.Atoi(arg(args, 2))
		if err1 != nil || err2 != nil {
			fmt.Println("usage: qty <index> <delta>")
			return false
		}
		a.cart.ChangeQuantity(i, d)
	case "clear":
		a.cart.Clear()
	case "wish":
		for _, e := range a.cart.Wishlist() {
			fmt.Printf("- %s (%s) @ %.2f\n", e.Name, e.ProductID, e.UnitPrice)
		}
	case "wishadd":
		if p, ok := a.pickFromListing(arg(args, 1)); ok {
			if !a.cart.AddToWishlist(p) {
				fmt.Println("already wishlisted")
			}
		}
	case "wishrm":
		if !a.cart.RemoveFromWishlist(arg(args, 1)) {
			fmt.Println("not in wishlist")
		}
	case "wishmove":
		if !a.cart.MoveToCart(arg(args, 1)) {
			fmt.Println("not in wishlist")
		}
	case "login":
		if len(args) != 3 {
			fmt.Println("usage: login <email|phone> <password>")
			return false
		}
		user, err := a.session.Login(ctx, args[1], args[2])
		if err != nil {
			fmt.Println("login failed:", err)
			return false
		}
		fmt.Println("welcome,", user.Name)
		a.startSession(user.ID.String())
		if back := a.session.ConsumeRedirectURL(); back != "" {
			fmt.Println("returning to", back)
		}
	case "logout":
		a.teardownSync()
		a.session.Logout()
	case "checkout":
		a.runCheckout(ctx, strings.Join(args[1:], " "))
	case "quit", "exit":
		return true
	default:
		fmt.Println("unknown command:", args[0])
	}
	return false
}

func (a *app) runCheckout(ctx context.Context, raw string) {
	parts := strings.SplitN(raw, ";", 4)
	if len(parts) != 4 {
		fmt.Println("usage: checkout <name>;<email>;<address>;<phone>")
		return
	}
	form := checkout.Form{
		Name:    strings.TrimSpace(parts[0]),
		Email:   strings.TrimSpace(parts[1]),
		Address: strings.TrimSpace(parts[2]),
		Phone:   strings.TrimSpace(parts[3]),
	}
	conf, err := a.checkout.Submit(ctx, form)
	if err != nil {
		fmt.Println("checkout failed:", err)
		return
	}
	fmt.Println("order placed:", conf.OrderID)
}

func (a *app) showListing(products []models.Product) {
	a.listing = products
	for i, p := range products {
		fmt.Printf("%d. %s @ %.2f [%s]\n", i+1, p.Name, p.Price, p.Category)
	}
}

// pickFromListing resolves a 1-based position in the last shown listing.
func (a *app) pickFromListing(n string) (models.Product, bool) {
	i, err := strconv.Atoi(n)
	if err != nil || i < 1 || i > len(a.listing) {
		fmt.Println("pick a product number from the last listing")
		return models.Product{}, false
	}
	return a.listing[i-1], true
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
