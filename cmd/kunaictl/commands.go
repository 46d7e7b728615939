package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kunaigc/go-kunai/blockdev"
	"github.com/kunaigc/go-kunai/boot"
	"github.com/kunaigc/go-kunai/dol"
	"github.com/kunaigc/go-kunai/flashfs"
	"github.com/kunaigc/go-kunai/payload"
	"github.com/kunaigc/go-kunai/spinor"
)

// parseUint accepts decimal, 0x hex and 0 octal.
func parseUint(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return uint32(v), nil
}

func idCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "id",
		Short: "Print the flash identification",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return g.withDevice(func(d *device) error {
				return blockdev.Activated(d.act, func() error {
					jedec, err := d.flash.ReadJEDECID()
					if err != nil {
						return err
					}
					mfr, err := d.flash.ReadID()
					if err != nil {
						return err
					}
					uid, err := d.flash.UniqueID()
					if err != nil {
						return err
					}
					id := spinor.ParseJEDECID(jedec)
					fmt.Printf("JEDEC ID:      0x%06X\n", jedec)
					fmt.Printf("Manufacturer:  0x%02X\n", id.Manufacturer)
					fmt.Printf("Memory type:   0x%02X\n", id.MemoryType)
					fmt.Printf("Capacity:      %d bytes\n", id.Size())
					fmt.Printf("Device ID:     0x%04X\n", mfr)
					fmt.Printf("Unique ID:     0x%016X\n", uid)

					blocks, err := blockdev.BlockCountFor(jedec, d.dev.Geometry())
					if err != nil {
						fmt.Printf("Filesystem:    %v\n", err)
						return nil
					}
					fmt.Printf("Filesystem:    %d blocks of %d bytes at 0x%X\n",
						blocks, d.dev.Geometry().BlockSize, blockdev.ReservedOffset)
					return nil
				})
			})
		},
	}
}

func dumpCmd(g *globals) *cobra.Command {
	var addrStr, lenStr, out string
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Read a flash range to a file, or hex to stdout",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			addr, err := parseUint(addrStr)
			if err != nil {
				return err
			}
			n, err := parseUint(lenStr)
			if err != nil {
				return err
			}
			buf := make([]byte, n)
			err = g.withDevice(func(d *device) error {
				return blockdev.Activated(d.act, func() error {
					return d.flash.Read(addr, buf)
				})
			})
			if err != nil {
				return err
			}
			if out == "" {
				dumper := hex.Dumper(os.Stdout)
				defer dumper.Close()
				_, err := dumper.Write(buf)
				return err
			}
			return os.WriteFile(out, buf, 0o644)
		},
	}
	cmd.Flags().StringVar(&addrStr, "addr", "0", "start address")
	cmd.Flags().StringVar(&lenStr, "len", "256", "number of bytes")
	cmd.Flags().StringVar(&out, "out", "", "output file (default: hex dump to stdout)")
	return cmd
}

func eraseCmd(g *globals) *cobra.Command {
	var addrStr, lenStr string
	var chip bool
	cmd := &cobra.Command{
		Use:   "erase",
		Short: "Erase a flash range or the whole chip",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return g.withDevice(func(d *device) error {
				return blockdev.Activated(d.act, func() error {
					if chip {
						g.log.Info("erasing chip")
						if err := d.flash.EraseChip(); err != nil {
							return err
						}
						return d.flash.WaitUntilReady()
					}
					addr, err := parseUint(addrStr)
					if err != nil {
						return err
					}
					n, err := parseUint(lenStr)
					if err != nil {
						return err
					}
					g.log.Info("erasing", "address", fmt.Sprintf("0x%06X", addr), "length", n)
					return d.flash.EraseRange(addr, int(n))
				})
			})
		},
	}
	cmd.Flags().StringVar(&addrStr, "addr", "0", "start address")
	cmd.Flags().StringVar(&lenStr, "len", "4096", "number of bytes; whole sectors are erased")
	cmd.Flags().BoolVar(&chip, "chip", false, "erase the whole chip")
	return cmd
}

func writeCmd(g *globals) *cobra.Command {
	var addrStr string
	cmd := &cobra.Command{
		Use:   "write FILE",
		Short: "Erase and program a file at an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			addr, err := parseUint(addrStr)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return g.withDevice(func(d *device) error {
				return blockdev.Activated(d.act, func() error {
					g.log.Info("writing", "file", args[0], "address", fmt.Sprintf("0x%06X", addr), "size", len(data))
					return d.flash.Write(addr, data)
				})
			})
		},
	}
	cmd.Flags().StringVar(&addrStr, "addr", "0", "start address")
	return cmd
}

func provisionCmd(g *globals) *cobra.Command {
	var compress, skipCheck bool
	cmd := &cobra.Command{
		Use:   "provision FILE",
		Short: "Install a CRC-guarded payload in the raw flash layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if !skipCheck {
				if _, err := dol.ParseBytes(data); err != nil {
					return fmt.Errorf("%s: %w", args[0], err)
				}
			}
			if compress {
				if data, err = payload.Compress(data); err != nil {
					return fmt.Errorf("compress: %w", err)
				}
			}

			layout := g.cfg.RawLayout()
			if uint32(len(data)) > layout.MaxPayload() {
				return fmt.Errorf("payload is %d bytes, layout holds %d", len(data), layout.MaxPayload())
			}

			return g.withDevice(func(d *device) error {
				err := blockdev.Activated(d.act, func() error {
					g.log.Info("provisioning", "file", args[0], "size", len(data),
						"payload", fmt.Sprintf("0x%06X", layout.PayloadAddr),
						"header", fmt.Sprintf("0x%06X", layout.HeaderAddr))
					if err := d.flash.Write(layout.PayloadAddr, data); err != nil {
						return err
					}
					return d.flash.Write(layout.HeaderAddr, layout.Header(data))
				})
				if err != nil {
					return err
				}

				// read back the way the loader will
				src := &boot.InternalFlashSource{Flash: d.flash, Layout: layout, Activator: d.act}
				buf, err := src.Probe(context.Background(), payload.NewArena(0))
				if err != nil {
					return fmt.Errorf("verify: %w", err)
				}
				defer buf.Release()
				fmt.Printf("Provisioned %d bytes, CRC verified\n", buf.Len())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&compress, "xz", false, "store the payload xz compressed")
	cmd.Flags().BoolVar(&skipCheck, "no-check", false, "skip the DOL header check")
	return cmd
}

func putCmd(g *globals) *cobra.Command {
	var name string
	var remove bool
	cmd := &cobra.Command{
		Use:   "put FILE",
		Short: "Copy a file onto the board's littlefs volume",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if name == "" {
				name = args[0]
			}
			var data []byte
			if !remove {
				var err error
				if data, err = os.ReadFile(args[0]); err != nil {
					return err
				}
			}
			return g.withDevice(func(d *device) (err error) {
				v, err := flashfs.MountOrFormat(d.dev, flashfs.WithLogger(g.log))
				if err != nil {
					return err
				}
				defer func() {
					if cerr := v.Close(); cerr != nil && err == nil {
						err = cerr
					}
				}()
				if remove {
					return v.Remove(name)
				}
				return v.WriteFile(name, data)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "name on the volume (default: FILE)")
	cmd.Flags().BoolVar(&remove, "rm", false, "remove the named file instead")
	return cmd
}

func bootCountCmd(g *globals) *cobra.Command {
	var increment bool
	cmd := &cobra.Command{
		Use:   "bootcount",
		Short: "Show or increment the menu boot counter",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return g.withDevice(func(d *device) (err error) {
				if increment {
					count, err := boot.IncrementBootCount(d.dev, flashfs.WithLogger(g.log))
					if err != nil {
						return err
					}
					fmt.Printf("Boot count: %d\n", count)
					return nil
				}

				v, err := flashfs.Mount(d.dev, flashfs.WithLogger(g.log))
				if err != nil {
					return err
				}
				defer func() {
					if cerr := v.Close(); cerr != nil && err == nil {
						err = cerr
					}
				}()
				count, err := v.BootCount()
				if err != nil {
					return err
				}
				fmt.Printf("Boot count: %d\n", count)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&increment, "increment", false, "increment the counter, formatting the volume if needed")
	return cmd
}
